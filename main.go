package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hostal-backend/config"
	"hostal-backend/controllers"
	"hostal-backend/routes"
	"hostal-backend/scheduler"
	"hostal-backend/services"
	"hostal-backend/store"
	"hostal-backend/store/gormstore"
	"hostal-backend/store/memory"
	"hostal-backend/store/mongostore"
)

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMySQL, config.DriverPostgres:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db), nil
	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return ms, nil
	case config.DriverMemory:
		log.Println("⚠️  STORAGE_DRIVER=memory: data is lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStore(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	log.Printf("✅ Storage ready (%s)", cfg.StorageDriver)

	if cfg.SeedRooms {
		if err := config.SeedRooms(context.Background(), st); err != nil {
			log.Printf("warning: room seeding failed: %v", err)
		}
	}

	// Initialize services
	calendar := services.NewStayCalendar(cfg.Stay, services.SystemClock{})
	projector := services.NewRoomStatusProjector(st, st, calendar, cfg.MaintenancePolicy)
	reservationService := services.NewReservationService(st, st, calendar, projector)
	roomService := services.NewRoomService(st, st, projector)
	reportService := services.NewReportService(st)

	// Initialize controllers
	reservationController := controllers.NewReservationController(reservationService, reportService)
	roomController := controllers.NewRoomController(roomService)

	router := routes.SetupRouter(reservationController, roomController, cfg.CorsOrigins)

	sched := scheduler.NewReservationScheduler(reservationService, cfg.SweepInterval)
	sched.Start(context.Background())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	// no sweep may run against a closed store
	sched.Stop()
	if err := st.Close(ctx); err != nil {
		log.Printf("⚠️  closing storage: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
