package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"revisionhub/backend/internal/api/handler"
	"revisionhub/backend/internal/models"
	"revisionhub/backend/internal/roomhub"
	"revisionhub/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=revisionhub port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Migrations
	err = db.AutoMigrate(
		&models.Room{},
		&models.Participant{},
		&models.RoomMessage{},
		&models.Poll{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting RevisionHub room service...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Dependencies
	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	// 2. Room hub
	hub := roomhub.NewHub(s)
	go hub.Run()
	hub.StartEventListener()

	// 3. Gin routing
	r := gin.Default()
	h := handler.NewHandler(hub, s)

	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms/:roomId", h.GetRoom)
	r.GET("/rooms/:roomId/messages", h.GetRoomMessages)
	r.GET("/rooms/:roomId/participants", h.GetRoomParticipants)
	r.GET("/polls/room/:roomId", h.GetRoomPolls)
	r.POST("/polls", h.CreatePoll)
	r.POST("/polls/:pollId/close", h.ClosePoll)
	r.GET("/ws", h.ServeWebSocket)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
