package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"quizflow-service/internal/config"
	"quizflow-service/internal/db"
	"quizflow-service/internal/event"
	"quizflow-service/internal/generator"
	"quizflow-service/internal/handlers"
	"quizflow-service/internal/notifier"
	"quizflow-service/internal/repository"
	"quizflow-service/internal/service"
	"quizflow-service/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.Mongo.URI == "" {
		log.Fatal("MONGODB_URI is required")
	}
	db.InitMongo(cfg.Mongo.URI)
	database := db.Client.Database(cfg.Mongo.Database)

	// Session store: Redis when configured, process memory otherwise.
	var sessions store.SessionStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = store.NewRedisStore(client, cfg.Session.TTL)
		log.Printf("Session store: redis at %s", cfg.Redis.Addr)
	} else {
		sessions = store.NewMemoryStore(cfg.Session.TTL)
		log.Println("Session store: in-process memory (REDIS_ADDR not set)")
	}

	// RabbitMQ event publisher, optional.
	var publisher *event.Publisher
	if cfg.Rabbit.URI != "" {
		var err error
		publisher, err = event.NewPublisher(cfg.Rabbit.URI, cfg.Rabbit.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, lifecycle events will not be published")
	}

	llm := generator.NewClient(cfg.LLM)
	mail := notifier.NewEmailNotifier(cfg.Email)
	if !mail.Configured() {
		log.Println("SMTP not configured, result emails will not be sent")
	}

	resultRepo := repository.NewResultRepository(database)
	quizService := service.NewQuizService(sessions, llm, llm, resultRepo, mail, publisher)
	quizHandler := handlers.NewQuizHandler(quizService)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "quizflow-service",
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	quiz := r.Group("/api/quiz")
	{
		quiz.POST("/generate", quizHandler.GenerateQuiz)
		quiz.GET("/session/:id", quizHandler.GetSession)
		quiz.POST("/session/:id/answer", quizHandler.SubmitAnswer)
		quiz.POST("/submit", quizHandler.SubmitQuiz)
		quiz.GET("/result/:id", quizHandler.GetResult)
	}

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
