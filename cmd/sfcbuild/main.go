package main

import "github.com/pipe01/esbuild-plugin-vue3/internal/exitcode"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitcode.Exit(err)
	}
}
