package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/hirelane/aicore/config"
	"github.com/hirelane/aicore/internal/agent"
	"github.com/hirelane/aicore/internal/api/handlers"
	"github.com/hirelane/aicore/internal/api/middleware"
	"github.com/hirelane/aicore/internal/api/routes"
	"github.com/hirelane/aicore/internal/cache"
	"github.com/hirelane/aicore/internal/ledger"
	"github.com/hirelane/aicore/internal/logger"
	"github.com/hirelane/aicore/internal/memory"
	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/orchestrator"
	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/rag"
	mongorepo "github.com/hirelane/aicore/internal/repositories/mongo"
	pgrepo "github.com/hirelane/aicore/internal/repositories/postgres"
	"github.com/hirelane/aicore/internal/router"
	"github.com/hirelane/aicore/internal/storage"
	"github.com/hirelane/aicore/internal/webhook"
	"github.com/hirelane/aicore/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Durable stores.
	mongoClient, err := config.NewMongo(ctx)
	if err != nil {
		log.WithError(err).Fatal("mongodb init failed")
	}
	mongoDB := config.MongoDatabase(mongoClient)
	if err := config.EnsureMongoIndexes(ctx, mongoDB); err != nil {
		log.WithError(err).Fatal("mongodb index setup failed")
	}

	pg, err := config.NewPostgres()
	if err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}

	rdb, err := config.NewRedis(ctx)
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}

	// LLM providers. OpenAI is required; Vertex is optional and its absence
	// only narrows which routed tiers can actually execute.
	openAI, err := llm.NewOpenAI(os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		log.WithError(err).Fatal("openai init failed")
	}
	providers := map[string]llm.Provider{"openai": openAI}

	if projectID := os.Getenv("VERTEX_PROJECT_ID"); projectID != "" {
		vertex, err := llm.NewVertexGemini(ctx, projectID, os.Getenv("VERTEX_LOCATION"), "gemini-1.5-flash")
		if err != nil {
			log.WithError(err).Fatal("vertex init failed")
		}
		providers["vertex"] = vertex
	} else {
		log.Warn("VERTEX_PROJECT_ID unset, vertex-routed tiers fall back")
	}

	// Optional raw-document archive.
	var archive storage.Archiver
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		var gcsOpts []option.ClientOption
		if creds := os.Getenv("GCS_CREDENTIALS_FILE"); creds != "" {
			gcsOpts = append(gcsOpts, option.WithCredentialsFile(creds))
		}
		gcs, err := storage.NewGCSArchiver(ctx, bucket, gcsOpts...)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		archive = gcs
	}

	// Substrate components.
	modelRouter := router.New(log)

	mem := memory.NewManager(cache.NewRedisCache(rdb), mongorepo.NewConversationRepo(mongoDB), log)

	embedder := rag.NewEmbedder(openAI, log)
	retriever := rag.NewRetriever(rag.NewChunker(), embedder, pgrepo.NewVectorRepo(pg), archive, log)

	costs := ledger.New(pgrepo.NewUsageRepo(pg), models.DefaultBudget(), log)

	notifier := webhook.New(os.Getenv("ESCALATION_WEBHOOK_URL"), os.Getenv("CRM_BASE_URL"), log)
	if !notifier.Enabled() {
		log.Warn("ESCALATION_WEBHOOK_URL unset, escalations are log-only")
	}

	interactions := mongorepo.NewInteractionRepo(mongoDB)
	classifier := orchestrator.NewClassifier(providers, modelRouter, log)
	orch := orchestrator.NewOrchestrator(classifier, log)
	coordinator := orchestrator.NewCoordinator(orch, interactions, notifier, costs, modelRouter, log)

	// The general assistant carries every capability; narrower specialists
	// register themselves against the remaining intent categories.
	generalBase := agent.NewBase("general-assistant", log,
		agent.WithRouting(modelRouter),
		agent.WithMemory(mem),
		agent.WithKnowledge(agent.RetrieverKnowledge{Retriever: retriever}),
		agent.WithCostTracking(costs),
	)
	if err := orch.Register(models.IntentGeneral, agent.NewGeneralAssistant(generalBase, providers)); err != nil {
		log.WithError(err).Fatal("handler registration failed")
	}

	// Background indexing pool.
	pool := &workers.IndexWorkerPool{
		Redis:     rdb,
		Retriever: retriever,
		Logger:    log,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("index worker pool start failed")
	}

	// HTTP surface.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Assistant:    handlers.NewAssistantHandler(coordinator),
		Conversation: handlers.NewConversationHandler(mem),
		Document:     handlers.NewDocumentHandler(retriever, rdb),
		Cost:         handlers.NewCostHandler(costs),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
