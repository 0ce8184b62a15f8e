package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Dealgrid/api-quotes/internal/agreement"
	"github.com/Dealgrid/api-quotes/internal/auth"
	"github.com/Dealgrid/api-quotes/internal/comment"
	"github.com/Dealgrid/api-quotes/internal/deal"
	"github.com/Dealgrid/api-quotes/internal/fields"
	"github.com/Dealgrid/api-quotes/internal/installment"
	"github.com/Dealgrid/api-quotes/internal/notification"
	"github.com/Dealgrid/api-quotes/internal/organization"
	"github.com/Dealgrid/api-quotes/internal/pricing"
	"github.com/Dealgrid/api-quotes/internal/quote"
	"github.com/Dealgrid/api-quotes/internal/user"
	"github.com/Dealgrid/api-quotes/internal/utils/db"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

const fieldCacheTTL = 5 * time.Minute

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}
	if err := auth.InitFromEnv(); err != nil {
		log.Fatal("auth setup:", err)
	}

	conn, err := db.GetDB()
	if err != nil {
		log.Fatal("database connection:", err)
	}

	for _, migrate := range []func(*gorm.DB) error{
		user.Migrate,
		organization.Migrate,
		fields.Migrate,
		comment.Migrate,
		installment.Migrate,
		quote.Migrate,
		agreement.Migrate,
		deal.Migrate,
	} {
		if err := migrate(conn); err != nil {
			log.Fatal("migration:", err)
		}
	}

	notifier := notification.NewFromEnv()
	fieldCache := fields.NewCache(fields.NewRepository(conn), fieldCacheTTL)

	userHandler := user.NewHandler(conn)
	orgHandler := organization.NewHandler(conn)
	fieldHandler := fields.NewHandler(fields.NewRepository(conn), fieldCache)
	dealHandler := deal.NewHandler(conn, fieldCache, notifier)
	commentHandler := comment.NewHandler(conn)
	quoteHandler := quote.NewHandler(conn, pricing.DefaultConfig(), notifier)
	agreementHandler := agreement.NewHandler(conn)

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/users", userHandler.Create).Methods("POST")

	// Authenticated routes
	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware)

	api.HandleFunc("/me", userHandler.Me).Methods("GET")
	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Update).Methods("PUT")
	api.HandleFunc("/users/{id}", userHandler.Delete).Methods("DELETE")

	api.HandleFunc("/organizations", orgHandler.Create).Methods("POST")
	api.HandleFunc("/organizations", orgHandler.List).Methods("GET")
	api.HandleFunc("/organizations/{id}", orgHandler.Get).Methods("GET")
	api.HandleFunc("/organizations/{id}", orgHandler.Update).Methods("PUT")
	api.HandleFunc("/organizations/{id}", orgHandler.Delete).Methods("DELETE")

	api.HandleFunc("/custom-fields", fieldHandler.List).Methods("GET")
	api.Handle("/custom-fields", auth.RequireAdmin(http.HandlerFunc(fieldHandler.Create))).Methods("POST")
	api.Handle("/custom-fields/{id}", auth.RequireAdmin(http.HandlerFunc(fieldHandler.Update))).Methods("PUT")
	api.Handle("/custom-fields/{id}", auth.RequireAdmin(http.HandlerFunc(fieldHandler.Delete))).Methods("DELETE")

	api.HandleFunc("/deals", dealHandler.Create).Methods("POST")
	api.HandleFunc("/deals", dealHandler.List).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.Get).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.Update).Methods("PUT")
	api.HandleFunc("/deals/{id}", dealHandler.Delete).Methods("DELETE")
	api.HandleFunc("/deals/{id}/attachments", dealHandler.AddAttachments).Methods("PATCH")

	api.HandleFunc("/deals/{id}/comments", commentHandler.Create).Methods("POST")
	api.HandleFunc("/deals/{id}/comments", commentHandler.ListByDeal).Methods("GET")
	api.HandleFunc("/comments/{id}", commentHandler.Get).Methods("GET")
	api.HandleFunc("/comments/{id}", commentHandler.Update).Methods("PUT")
	api.HandleFunc("/comments/{id}", commentHandler.Delete).Methods("DELETE")

	api.HandleFunc("/quotes/preview", quoteHandler.Preview).Methods("POST")
	api.HandleFunc("/deals/{id}/quotes", quoteHandler.Create).Methods("POST")
	api.HandleFunc("/deals/{id}/quotes", quoteHandler.List).Methods("GET")
	api.HandleFunc("/deals/{id}/quotes/{qid}", quoteHandler.Get).Methods("GET")
	api.HandleFunc("/deals/{id}/quotes/{qid}", quoteHandler.Update).Methods("PUT")
	api.HandleFunc("/deals/{id}/quotes/{qid}", quoteHandler.Delete).Methods("DELETE")
	api.HandleFunc("/deals/{id}/quotes/{qid}/status", quoteHandler.UpdateStatus).Methods("PATCH")

	api.HandleFunc("/deals/{id}/agreements", agreementHandler.Create).Methods("POST")
	api.HandleFunc("/deals/{id}/agreements", agreementHandler.List).Methods("GET")
	api.HandleFunc("/agreements/{id}", agreementHandler.Get).Methods("GET")
	api.HandleFunc("/agreements/{id}/status", agreementHandler.UpdateStatus).Methods("PATCH")
	api.HandleFunc("/agreements/{id}", agreementHandler.Delete).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("listening on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, c.Handler(r)))
}

func corsOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		return strings.Split(v, ",")
	}
	return []string{"*"}
}
