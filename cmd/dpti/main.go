package main

import "github.com/OpenTraceLab/OpenTraceDPTI/cmd/dpti/cmd"

func main() {
	cmd.Execute()
}
