package main

import (
	"fmt"
	"log"
	"os"

	"imbsoft.co.id/attendance/security"
)

func main() {
	secret := os.Getenv("ATTENDANCE_SIGNING_SECRET")
	if secret == "" {
		log.Fatal("ATTENDANCE_SIGNING_SECRET is not set")
	}

	token, err := security.CreateIdentityToken(&security.Identity{
		ID:         1,
		UniqueName: "operator",
		Email:      "operator@imbsoft.co.id",
	}, secret, 3600)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
