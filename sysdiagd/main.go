package main

import (
	"log"

	"sysdiag/sysdiagd/server"
)

func main() {
	serverInstance := server.New()
	if err := serverInstance.Start(); err != nil {
		log.Fatal("[Sysdiag] Failed to start server: ", err)
	}
}
