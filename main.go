package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"estate-crm/microservices/deals-service/clients"
	"estate-crm/microservices/deals-service/handlers"
	"estate-crm/microservices/deals-service/logging"
	"estate-crm/microservices/deals-service/repositories"
	"estate-crm/microservices/deals-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role, Manager-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Deals Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dealsClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer dealsClient.Disconnect(ctx)

	if err := dealsClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := dealsClient.Database(mongoDBName)
	dealRepo := repositories.NewDealRepo(db.Collection("deals"))
	stageRepo := repositories.NewStageRepo(db.Collection("stages"))
	assignmentRepo := repositories.NewAssignmentRepo(db.Collection("assignments"))
	workItemRepo := repositories.NewWorkItemRepo(db.Collection("workitems"))

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})
	notifier := clients.NewNotificationsClient(os.Getenv("NOTIFICATIONS_SERVICE_URL"), nil, notificationsBreaker)

	stageService := services.NewStageService(stageRepo)
	assignmentService := services.NewAssignmentService(stageRepo, dealRepo, assignmentRepo, workItemRepo, notifier)
	completionService := services.NewCompletionService(stageService, workItemRepo)
	dealService := services.NewDealService(dealRepo, stageRepo, workItemRepo, stageService, completionService)

	dealHandler := handlers.NewDealHandler(dealService, stageService)
	stageHandler := handlers.NewStageHandler(stageService, assignmentService, dealService)
	workItemHandler := handlers.NewWorkItemHandler(dealService)

	// Push-based completion: follow work item changes for the configured
	// project and re-evaluate owning stages as statuses change.
	if rawProjectID := os.Getenv("WATCH_PROJECT_ID"); rawProjectID != "" {
		projectID, err := primitive.ObjectIDFromHex(rawProjectID)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Invalid WATCH_PROJECT_ID: %v", err)
		}
		go func() {
			if err := dealService.RunWorkItemWatcher(context.Background(), projectID); err != nil {
				logging.Logger.Errorf("Event ID: WATCHER_STOPPED, Description: Work item watcher stopped: %v", err)
			}
		}()
	}

	r := mux.NewRouter()

	r.HandleFunc("/api/deals", dealHandler.CreateDeal).Methods(http.MethodPost)
	r.HandleFunc("/api/deals/{dealId}", dealHandler.GetDeal).Methods(http.MethodGet)
	r.HandleFunc("/api/deals/{dealId}/stages", dealHandler.CreateStagesForDeal).Methods(http.MethodPost)
	r.HandleFunc("/api/deals/{dealId}/stages", dealHandler.GetStagesForDeal).Methods(http.MethodGet)
	r.HandleFunc("/api/deals/{dealId}/schedule", dealHandler.GetSchedule).Methods(http.MethodGet)
	r.HandleFunc("/api/stages/{stageId}/metadata", stageHandler.UpdateStageMetadata).Methods(http.MethodPatch)
	r.HandleFunc("/api/stages/{stageId}/date", stageHandler.SetStageDate).Methods(http.MethodPatch)
	r.HandleFunc("/api/stages/{stageId}/members", stageHandler.AssignMembers).Methods(http.MethodPost)
	r.HandleFunc("/api/stages/{stageId}/complete", stageHandler.MarkStageComplete).Methods(http.MethodPost)
	r.HandleFunc("/api/workitems/status", workItemHandler.ChangeWorkItemStatus).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Deals service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
