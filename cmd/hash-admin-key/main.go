package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	key := flag.String("key", "", "admin key to hash (required)")
	flag.Parse()

	if *key == "" {
		flag.Usage()
		os.Exit(2)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*key), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin key: %v", err)
	}

	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
}
