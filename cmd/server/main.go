package main

import (
	"log"
	"net/http"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"
)

func main() {
	cfg := config.Load()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := bootstrapAdmin(db, cfg); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	go sessionSweeper(db)

	h := handlers.NewHandlers(db, cfg.TemplateDir, cfg.SecureCookies)
	mux := setupRouter(h, cfg.StaticDir)

	log.Printf("Listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, mux))
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusFound)
	})

	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)

	mux.Handle("GET /logout", h.AuthMiddleware(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /home", h.AuthMiddleware(http.HandlerFunc(h.Home)))
	mux.Handle("GET /add_income", h.AuthMiddleware(http.HandlerFunc(h.AddIncomeForm)))
	mux.Handle("POST /add_income", h.AuthMiddleware(http.HandlerFunc(h.AddIncome)))
	mux.Handle("GET /add_expense", h.AuthMiddleware(http.HandlerFunc(h.AddExpenseForm)))
	mux.Handle("POST /add_expense", h.AuthMiddleware(http.HandlerFunc(h.AddExpense)))

	return mux
}

// bootstrapAdmin creates the configured admin account on first start so a
// fresh deployment has a usable login. Does nothing if the email is taken
// or the config is incomplete.
func bootstrapAdmin(db *storage.DB, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	if _, err := db.GetUserByEmail(cfg.AdminEmail); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	user, err := db.CreateUser(cfg.AdminUser, cfg.AdminEmail, hash)
	if err != nil {
		return err
	}
	log.Printf("Created admin user %s (id %d)", user.Email, user.ID)
	return nil
}

// sessionSweeper periodically removes expired sessions.
func sessionSweeper(db *storage.DB) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if err := db.CleanExpiredSessions(); err != nil {
			log.Printf("Failed to clean expired sessions: %v", err)
		}
	}
}
