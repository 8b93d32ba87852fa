package main

import (
	"log"

	"checkin-kiosk/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
