package main

import "lexledger/internal/app"

func main() {
	app.Run()
}
