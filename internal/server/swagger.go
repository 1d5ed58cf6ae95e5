package server

//go:generate swag init -g internal/server/server.go -o internal/docs

// @title qadetector API
// @version 1.0
// @description Page quality scans (accessibility, spelling, HTML conformance) for registered domains.
// @contact.name qadetector maintainers
// @contact.url https://github.com/raysh454/qadetector
// @BasePath /
