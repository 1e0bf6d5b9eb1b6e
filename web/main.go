package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-gpu-pathtracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	webServer := server.NewServer(*port)

	log.Printf("GPU Path Tracer Web Server")
	log.Printf("Stream renders from http://localhost:%d/api/render?scene=default", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
