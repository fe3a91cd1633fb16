/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/MontyPithon/bancroff/cmd"

func main() {
	cmd.Execute()
}
