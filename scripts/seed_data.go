//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/toosila/toosila-api/internal/auth"
	"github.com/toosila/toosila-api/internal/config"
	"github.com/toosila/toosila-api/internal/database"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
	"github.com/toosila/toosila-api/internal/service"
)

const seedPassword = "toosila-seed-1"

var (
	cities = []string{"Baghdad", "Basra", "Erbil", "Mosul", "Najaf", "Karbala", "Sulaymaniyah", "Kirkuk", "Hillah", "Nasiriyah"}

	firstNames = []string{"Ali", "Zainab", "Hussein", "Fatima", "Omar", "Maryam", "Ahmed", "Noor", "Mustafa", "Sara",
		"Hassan", "Ruqaya", "Karrar", "Huda", "Yaser", "Aya", "Mohammed", "Rusul", "Abbas", "Dua"}
	lastNames = []string{"Al-Saadi", "Al-Jubouri", "Al-Tamimi", "Al-Obaidi", "Al-Rubaie", "Al-Khafaji", "Al-Maliki", "Al-Shammari"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	run := time.Now().Unix()

	userRepo := repository.NewUserRepository(db.DB)
	offerRepo := repository.NewOfferRepository(db.DB)
	bookingRepo := repository.NewBookingRepository(db.DB)
	demandRepo := repository.NewDemandRepository(db.DB)

	authService := service.NewAuthService(userRepo, auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry))
	offerService := service.NewOfferService(db.DB, offerRepo, bookingRepo, userRepo, service.NewPricingService())
	demandService := service.NewDemandService(demandRepo, userRepo)

	// Create users, every third one a driver
	log.Println("Creating 30 users...")
	var driverIDs, passengerIDs []string
	for i := 0; i < 30; i++ {
		isDriver := i%3 == 0
		resp, err := authService.Register(ctx, &models.RegisterRequest{
			Name:     fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]),
			Email:    fmt.Sprintf("seed-%d-%d@toosila.test", run, i),
			Phone:    fmt.Sprintf("0770%07d", rand.Intn(10000000)),
			Password: seedPassword,
			IsDriver: isDriver,
		})
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		if isDriver {
			driverIDs = append(driverIDs, resp.User.ID)
		} else {
			passengerIDs = append(passengerIDs, resp.User.ID)
		}
	}
	log.Printf("Created %d drivers and %d passengers", len(driverIDs), len(passengerIDs))
	if len(driverIDs) == 0 || len(passengerIDs) == 0 {
		log.Fatal("No users created, nothing else to seed")
	}

	// Offers between random city pairs over the next week
	log.Println("Creating offers...")
	var offerIDs []string
	for _, driverID := range driverIDs {
		for j := 0; j < 3; j++ {
			from, to := cityPair()
			offer, err := offerService.CreateOffer(ctx, driverID, &models.CreateOfferRequest{
				FromCity:      from,
				ToCity:        to,
				DepartureTime: time.Now().Add(time.Duration(6+rand.Intn(7*24)) * time.Hour).Truncate(15 * time.Minute),
				Seats:         2 + rand.Intn(5),
				Price:         float64(10+rand.Intn(40)) * 1000,
			})
			if err != nil {
				log.Printf("Failed to create offer: %v", err)
				continue
			}
			offerIDs = append(offerIDs, offer.ID)
		}
	}
	log.Printf("Created %d offers", len(offerIDs))

	log.Println("Creating demands...")
	demands := 0
	for _, passengerID := range passengerIDs {
		from, to := cityPair()
		earliest := time.Now().Add(time.Duration(12+rand.Intn(72)) * time.Hour).Truncate(time.Hour)
		budget := float64(15+rand.Intn(30)) * 1000
		if _, err := demandService.CreateDemand(ctx, passengerID, &models.CreateDemandRequest{
			FromCity:     from,
			ToCity:       to,
			EarliestTime: earliest,
			LatestTime:   earliest.Add(6 * time.Hour),
			Seats:        1 + rand.Intn(3),
			BudgetMax:    &budget,
		}); err != nil {
			log.Printf("Failed to create demand: %v", err)
			continue
		}
		demands++
	}

	log.Println("\n=== Seed Data Summary ===")
	log.Printf("Drivers: %d, passengers: %d", len(driverIDs), len(passengerIDs))
	log.Printf("Offers: %d, demands: %d", len(offerIDs), demands)
	log.Printf("All seeded users log in with password %q", seedPassword)
	if len(offerIDs) > 0 {
		log.Println("Sample offer ID:", offerIDs[0])
	}
}

func cityPair() (string, string) {
	from := cities[rand.Intn(len(cities))]
	for {
		to := cities[rand.Intn(len(cities))]
		if to != from {
			return from, to
		}
	}
}
