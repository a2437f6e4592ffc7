package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/aligulzar729/shield/cmd/shield/cli"
	"github.com/aligulzar729/shield/internal/app"
	"github.com/aligulzar729/shield/internal/observability"
	"github.com/aligulzar729/shield/internal/panel"
	"github.com/aligulzar729/shield/internal/platform/cache"
	"github.com/aligulzar729/shield/internal/platform/db"
	"github.com/aligulzar729/shield/internal/provision"
	"github.com/aligulzar729/shield/internal/rbac"
	"github.com/aligulzar729/shield/internal/users"
	"github.com/aligulzar729/shield/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	var code int
	switch command {
	case "serve":
		code = runServe(ctx, cfg, logger)
	case "super-admin":
		code = runSuperAdmin(ctx, cfg, logger, args)
	case "generate":
		code = runGenerate(ctx, cfg, logger, args)
	case "jobs":
		code = runJobs(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, super-admin, generate, jobs)\n", command)
		code = 2
	}
	os.Exit(code)
}

func connect(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func runServe(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return 1
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacCache := rbac.NewCache(redisClient, cfg.CacheTTL)
	rbacService := rbac.NewService(rbac.NewRepository(pool), rbacCache)
	rbacHandler := rbac.NewHandler(logger, rbacService, cfg.Guard)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		RBACHandler: rbacHandler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	syncJob := jobs.NewSuperAdminSyncJob(rbacService, cfg.SuperAdminRoleName, cfg.TenancyEnabled, metrics, logger)
	cron, err := nightlySyncSchedule(cfg)
	if err != nil {
		logger.Error("build sync schedule", slog.Any("error", err))
		return 1
	}
	if cfg.TenancyEnabled && len(cfg.Tenants) == 0 {
		logger.Warn("tenancy enabled but SHIELD_TENANTS is empty; nightly super admin sync disabled")
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSuperAdminSync, Handler: syncJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		return 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := worker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("serve", slog.Any("error", err))
		return 1
	}
	logger.Info("shut down cleanly")
	return 0
}

const nightlySyncSpec = "0 3 * * *"

// nightlySyncSchedule builds the cron registrations for the nightly
// super-admin re-sync. With tenancy enabled each configured tenant gets
// its own task; a tenantless task would be rejected by the handler.
func nightlySyncSchedule(cfg *app.Config) ([]jobs.CronRegistration, error) {
	if !cfg.TenancyEnabled {
		task, err := jobs.NewSuperAdminSyncTask(jobs.SuperAdminSyncPayload{Guard: cfg.Guard})
		if err != nil {
			return nil, err
		}
		return []jobs.CronRegistration{{Spec: nightlySyncSpec, Task: task}}, nil
	}
	var cron []jobs.CronRegistration
	for _, tenant := range cfg.Tenants {
		task, err := jobs.NewSuperAdminSyncTask(jobs.SuperAdminSyncPayload{Guard: cfg.Guard, TenantID: &tenant})
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: nightlySyncSpec, Task: task})
	}
	return cron, nil
}

func runSuperAdmin(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	flags := flag.NewFlagSet("super-admin", flag.ContinueOnError)
	userID := flags.Int64("user", 0, "id of the user to promote")
	panelID := flags.String("panel", "", "panel to scope the super admin to")
	tenantID := flags.Int64("tenant", 0, "tenant id when tenancy is enabled")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return 1
	}
	defer pool.Close()

	provisioner := provision.New(
		provision.Config{
			RoleName:       cfg.SuperAdminRoleName,
			Guard:          cfg.Guard,
			TenancyEnabled: cfg.TenancyEnabled,
		},
		users.NewRepository(pool),
		rbac.NewService(rbac.NewRepository(pool), nil),
		panel.NewRegistry(cfg.Panels),
		provision.NewTerminalPrompter(os.Stdin, os.Stdout),
		logger,
	)

	command, err := cli.NewSuperAdminCLI(provisioner, nil)
	if err != nil {
		logger.Error("super-admin cli", slog.Any("error", err))
		return 1
	}
	return command.Command(ctx, cli.SuperAdminOptions{
		UserID: *userID,
		Panel:  *panelID,
		Tenant: *tenantID,
	})
}

func runGenerate(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	guard := flags.String("guard", cfg.Guard, "guard to namespace permissions under")
	resources := flags.String("resources", "", "comma separated resources (defaults to SHIELD_RESOURCES)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return 1
	}
	defer pool.Close()

	list := cfg.Resources
	if *resources != "" {
		list = strings.Split(*resources, ",")
	}

	generator := rbac.NewGenerator(rbac.NewService(rbac.NewRepository(pool), nil), nil)
	command, err := cli.NewGenerateCLI(generator)
	if err != nil {
		logger.Error("generate cli", slog.Any("error", err))
		return 1
	}
	return command.Command(ctx, cli.GenerateOptions{Guard: *guard, Resources: list})
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	flags := flag.NewFlagSet("jobs", flag.ContinueOnError)
	guard := flags.String("guard", "", "guard for the sync task (defaults to configured guard)")
	tenant := flags.Int64("tenant", 0, "tenant id for the sync task")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	action := "stats"
	if rest := flags.Args(); len(rest) > 0 {
		action = rest[0]
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer func() { _ = jobsCLI.Close() }()

	switch action {
	case "trigger":
		scope := *guard
		if scope == "" {
			scope = cfg.Guard
		}
		var tenantID *int64
		if *tenant > 0 {
			tenantID = tenant
		}
		if cfg.TenancyEnabled && tenantID == nil {
			fmt.Fprintln(os.Stderr, "jobs: --tenant is required when tenancy is enabled")
			return 2
		}
		info, err := jobsCLI.TriggerSync(ctx, scope, tenantID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", jobs.TaskSuperAdminSync, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: stats: %v\n", err)
			return 1
		}
		fmt.Println(stats)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "jobs: unknown action %q (expected trigger, stats)\n", action)
		return 2
	}
}
