// file: jsbridge/main.go
package main

import "github.com/rskv-p/jsbridge/cmd"

func main() {
	cmd.Execute()
}
