package backend

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/leandrocarocca/habit-circle-demo/backend/queue"
	"github.com/leandrocarocca/habit-circle-demo/backend/server"
	"github.com/leandrocarocca/habit-circle-demo/backend/server/auth"
	"github.com/leandrocarocca/habit-circle-demo/backend/server/notifications/email"
	"github.com/leandrocarocca/habit-circle-demo/backend/stats"
	cache "github.com/leandrocarocca/habit-circle-demo/backend/storage/cache"
	storage "github.com/leandrocarocca/habit-circle-demo/backend/storage/persistent"
)

// Run is the main function that sets up and runs the backend server.
func Run() {

	// Load the .env file.
	err := godotenv.Load("backend/.env")
	if err != nil {
		fmt.Println("Error loading .env file")
	}

	// Read the environment variables from the .env file using os.Getenv.
	signingKey := os.Getenv("JWT_SIGNING_KEY") // JWT signing key for token generation
	serverURL := os.Getenv("SERVER_URL")       // The URL where the server is running
	dbURI := os.Getenv("MONGODB_URI")          // MongoDB database URI
	dbName := os.Getenv("TEST_DB_NAME")        // The name of the MongoDB database
	smtpEmail := os.Getenv("GOOGLE_EMAIL")     // The email address used for sending summary emails
	smtpPassword := os.Getenv("GOOGLE_PASS")   // The password for the email account
	redisUrl := os.Getenv("REDIS_URL")         // The Redis URL for caching stats and deduping summaries
	rabbitMQURL := os.Getenv("RABBITMQ_URL")   // The URL for the RabbitMQ message broker
	numSummaryProducers := 1                   // The number of summary producers
	numSummaryConsumers := 2                   // The number of summary consumers
	ctx := context.Background()                // Create a new context

	// Initialize the email service with the email and password
	email.InitEmailService(smtpEmail, smtpPassword)

	// One Redis cache backs both the stats snapshots and the summary dedupe
	appCache, err := cache.NewCache(redisUrl)
	if err != nil {
		log.Fatal("error connecting to redis: ", err)
	}

	// Build the summary queue using the RabbitMQ URL, number of producers and consumers, and the cache
	summaryQueue := queue.BuildSummaryQueue(rabbitMQURL, numSummaryProducers, numSummaryConsumers, appCache)

	// Start the queue consumers
	_, err = summaryQueue.StartConsumers(ctx)
	if err != nil {
		log.Fatal("error starting queue consumers: ", err)
	}

	// Connect to MongoDB
	store, err := storage.NewStorage(dbName, dbURI)
	if err != nil {
		log.Fatal("error connecting to storage: ", err)
	}

	// Initialize the authentication service
	auth.InitAuth(store, signingKey)

	// Initialize the stats service
	statsService := stats.NewService(store, appCache)

	// Start the core server
	api := &server.API{Store: store, Stats: statsService, SummaryQueue: summaryQueue}
	go server.Start(serverURL, signingKey, api)

	// Setting up the signal interrupt handler to gracefully shutdown our server
	sigs := make(chan os.Signal, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		fmt.Println()
		fmt.Println(sig)
		if err := store.Disconnect(); err != nil {
			log.Println("error disconnecting storage: ", err)
		}
		os.Exit(0)
	}()

	select {}
}
