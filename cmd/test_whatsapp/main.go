package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"condopix_app/internal/services"
)

func main() {
	phone := flag.String("phone", "", "Phone number in international format (e.g. 5511999999999)")
	msg := flag.String("msg", "Test message from WhatsAppService", "Message body")
	flag.Parse()

	if *phone == "" {
		log.Fatal("Please provide a phone number using -phone flag")
	}

	// Load envs
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	service := services.NewWhatsAppService()

	to := services.NormalizePhone(*phone)
	log.Printf("Sending message to %s: %s", to, *msg)

	if err := service.SendTextMessage(context.Background(), to, *msg); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}

	log.Println("Message sent successfully!")
}
