package main

import (
	"github.com/leandrocarocca/habit-circle-demo/backend"
)

func main() {
	backend.Run()
}
