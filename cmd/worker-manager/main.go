// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bidbuddy-workers/internal/common/agentmail"
	"bidbuddy-workers/internal/common/auth"
	"bidbuddy-workers/internal/common/aws"
	"bidbuddy-workers/internal/common/camunda"
	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/database"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/filename"
	"bidbuddy-workers/internal/trades"

	// Proposal Workers (4)
	ip "bidbuddy-workers/internal/workers/proposal/index-proposal"
	ppf "bidbuddy-workers/internal/workers/proposal/parse-proposal-filename"
	rp "bidbuddy-workers/internal/workers/proposal/record-proposals"
	rbs "bidbuddy-workers/internal/workers/proposal/refresh-bidder-stats"

	// Drive Workers (3)
	sdp "bidbuddy-workers/internal/workers/drive/sync-drive-projects"
	spp "bidbuddy-workers/internal/workers/drive/sync-project-proposals"
	upf "bidbuddy-workers/internal/workers/drive/upload-proposal-file"

	// Intake Workers (4)
	cie "bidbuddy-workers/internal/workers/intake/classify-inbound-email"
	ebc "bidbuddy-workers/internal/workers/intake/extract-buildingconnected"
	fea "bidbuddy-workers/internal/workers/intake/fetch-email-attachment"
	fwe "bidbuddy-workers/internal/workers/intake/forward-email"

	// Communication Workers (2)
	es "bidbuddy-workers/internal/workers/communication/email-send"
	rn "bidbuddy-workers/internal/workers/communication/render-notification"

	// Auth Workers (3)
	goe "bidbuddy-workers/internal/workers/auth/google-oauth-exchange"
	rgt "bidbuddy-workers/internal/workers/auth/refresh-google-token"
	rus "bidbuddy-workers/internal/workers/auth/resolve-user-session"

	// Data Access Workers (2)
	qe "bidbuddy-workers/internal/workers/data-access/query-elasticsearch"
	qp "bidbuddy-workers/internal/workers/data-access/query-postgresql"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger now that the configured level and format are known.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	if cfg.Tracing.Enabled {
		if err := obs.EnableTracing(cfg.Tracing.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing disabled, jaeger exporter failed", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Trade alias table and filename parser ---
	aliases, err := trades.LoadAliases(ctx, pg.DB)
	if err != nil {
		zapLog.Warn("trade alias table unavailable, using built-in defaults", zap.Error(err))
		aliases = trades.DefaultAliases()
	}
	resolver := trades.NewResolver(aliases)
	parser := filename.NewParser(resolver)
	zapLog.Info("trade resolver ready", zap.Int("aliases", resolver.Len()))

	// --- Init External Service Clients ---
	driveClient := googledrive.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret)
	agentMailClient := agentmail.NewClient(cfg.AgentMail.BaseURL, cfg.AgentMail.APIKey)
	identityClient := auth.NewIdentityClient(cfg.Identity.BaseURL, cfg.Identity.AnonKey)

	var sesClient *aws.SESClient
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}

	var snsClient *aws.SNSClient
	if cfg.Notifications.SNS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}

	zapLog.Info("All external service clients initialized")

	// --- Register Workers ---
	workers := make([]*camunda.CamundaWorker, 0, 18)
	register := func(taskType string, maxJobsActive int, timeout time.Duration, handler camunda.JobHandler) {
		w := camunda.NewWorker(camundaClient.GetClient(), taskType, maxJobsActive, timeout, handler, zapLog, obs)
		w.Start()
		workers = append(workers, w)
	}

	// --- 1. Proposal Workers (4) ---
	if wc := config.GetWorkerConfig(cfg, ppf.TaskType); wc.Enabled {
		conf := ppf.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(ppf.TaskType, conf.MaxJobsActive, conf.Timeout, ppf.NewHandler(conf, parser, log))
	}

	if wc := config.GetWorkerConfig(cfg, rp.TaskType); wc.Enabled {
		conf := rp.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(rp.TaskType, conf.MaxJobsActive, conf.Timeout, rp.NewHandler(conf, pg.DB, log))
	}

	if wc := config.GetWorkerConfig(cfg, rbs.TaskType); wc.Enabled {
		conf := rbs.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(rbs.TaskType, conf.MaxJobsActive, conf.Timeout, rbs.NewHandler(conf, pg.DB, redis.Client, log))
	}

	if wc := config.GetWorkerConfig(cfg, ip.TaskType); wc.Enabled {
		conf := ip.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(ip.TaskType, conf.MaxJobsActive, conf.Timeout, ip.NewHandler(conf, esClient.Client, log))
	}

	// --- 2. Drive Workers (3) ---
	if wc := config.GetWorkerConfig(cfg, sdp.TaskType); wc.Enabled {
		conf := sdp.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		conf.NotifyTopicARN = cfg.Notifications.SNS.TopicARN

		var publisher sdp.SNSPublisher
		if snsClient != nil {
			publisher = snsClient
		}
		register(sdp.TaskType, conf.MaxJobsActive, conf.Timeout, sdp.NewHandler(conf, driveClient, pg.DB, publisher, log))
	}

	if wc := config.GetWorkerConfig(cfg, spp.TaskType); wc.Enabled {
		conf := spp.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(spp.TaskType, conf.MaxJobsActive, conf.Timeout, spp.NewHandler(conf, driveClient, pg.DB, parser, log))
	}

	if wc := config.GetWorkerConfig(cfg, upf.TaskType); wc.Enabled {
		conf := upf.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		if cfg.Drive.UncertainFolderName != "" {
			conf.FallbackFolderName = cfg.Drive.UncertainFolderName
		}
		if cfg.Drive.MatchThreshold > 0 {
			conf.MatchThreshold = cfg.Drive.MatchThreshold
		}
		register(upf.TaskType, conf.MaxJobsActive, conf.Timeout, upf.NewHandler(conf, driveClient, driveClient, pg.DB, log))
	}

	// --- 3. Intake Workers (4) ---
	if wc := config.GetWorkerConfig(cfg, cie.TaskType); wc.Enabled {
		conf := cie.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(cie.TaskType, conf.MaxJobsActive, conf.Timeout, cie.NewHandler(conf, log))
	}

	if wc := config.GetWorkerConfig(cfg, ebc.TaskType); wc.Enabled {
		conf := ebc.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(ebc.TaskType, conf.MaxJobsActive, conf.Timeout, ebc.NewHandler(conf, log))
	}

	if wc := config.GetWorkerConfig(cfg, fea.TaskType); wc.Enabled {
		conf := fea.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(fea.TaskType, conf.MaxJobsActive, conf.Timeout, fea.NewHandler(conf, agentMailClient, log))
	}

	if wc := config.GetWorkerConfig(cfg, fwe.TaskType); wc.Enabled {
		if sesClient == nil {
			zapLog.Warn("forward-email requires SES, worker not registered")
		} else {
			conf := fwe.DefaultConfig()
			conf.MaxJobsActive = wc.MaxJobsActive
			conf.Timeout = config.GetDuration(wc.Timeout)
			conf.ForwardFrom = cfg.Notifications.Email.FromEmail
			conf.ForwardTo = cfg.Notifications.Email.ForwardTo
			register(fwe.TaskType, conf.MaxJobsActive, conf.Timeout, fwe.NewHandler(conf, agentMailClient, sesClient, log))
		}
	}

	// --- 4. Communication Workers (2) ---
	if wc := config.GetWorkerConfig(cfg, rn.TaskType); wc.Enabled {
		conf := rn.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		if cfg.Templates.RegistryPath != "" {
			conf.TemplateRegistry = cfg.Templates.RegistryPath
		}
		register(rn.TaskType, conf.MaxJobsActive, conf.Timeout, rn.NewHandler(conf, log))
	}

	if wc := config.GetWorkerConfig(cfg, es.TaskType); wc.Enabled {
		conf := es.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		conf.SMTPHost = cfg.Integrations.SMTP.Host
		if cfg.Integrations.SMTP.Port > 0 {
			conf.SMTPPort = cfg.Integrations.SMTP.Port
		}
		conf.SMTPUsername = cfg.Integrations.SMTP.Username
		conf.SMTPPassword = cfg.Integrations.SMTP.Password
		conf.UseTLS = cfg.Integrations.SMTP.UseTLS
		if cfg.Integrations.SMTP.DefaultFrom != "" {
			conf.DefaultFrom = cfg.Integrations.SMTP.DefaultFrom
		}
		conf.FallbackToSES = cfg.Integrations.AWS.SES.Enabled

		var ses es.SESService
		if sesClient != nil {
			ses = sesClient
		}
		register(es.TaskType, conf.MaxJobsActive, conf.Timeout, es.NewHandler(conf, ses, log))
	}

	// --- 5. Auth Workers (3) ---
	if wc := config.GetWorkerConfig(cfg, goe.TaskType); wc.Enabled {
		conf := goe.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		conf.RedirectURI = cfg.Google.RedirectURL
		register(goe.TaskType, conf.MaxJobsActive, conf.Timeout, goe.NewHandler(conf, driveClient, pg.DB, log))
	}

	if wc := config.GetWorkerConfig(cfg, rgt.TaskType); wc.Enabled {
		conf := rgt.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(rgt.TaskType, conf.MaxJobsActive, conf.Timeout, rgt.NewHandler(conf, driveClient, pg.DB, redis.Client, log))
	}

	if wc := config.GetWorkerConfig(cfg, rus.TaskType); wc.Enabled {
		conf := rus.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(rus.TaskType, conf.MaxJobsActive, conf.Timeout, rus.NewHandler(conf, identityClient, log))
	}

	// --- 6. Data Access Workers (2) ---
	if wc := config.GetWorkerConfig(cfg, qp.TaskType); wc.Enabled {
		conf := qp.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(qp.TaskType, conf.MaxJobsActive, conf.Timeout, qp.NewHandler(conf, pg.DB, log))
	}

	if wc := config.GetWorkerConfig(cfg, qe.TaskType); wc.Enabled {
		conf := qe.DefaultConfig()
		conf.MaxJobsActive = wc.MaxJobsActive
		conf.Timeout = config.GetDuration(wc.Timeout)
		register(qe.TaskType, conf.MaxJobsActive, conf.Timeout, qe.NewHandler(conf, esClient.Client, log))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			status := "ready"
			code := http.StatusOK
			if err := camundaClient.HealthCheck(checkCtx); err != nil {
				status, code = "zeebe unavailable", http.StatusServiceUnavailable
			} else if err := pg.Ping(checkCtx); err != nil {
				status, code = "postgres unavailable", http.StatusServiceUnavailable
			} else if err := redis.Ping(checkCtx); err != nil {
				status, code = "redis unavailable", http.StatusServiceUnavailable
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
