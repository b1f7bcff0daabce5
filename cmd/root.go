/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flashnet",
	Short: "Flashcard study server and command line client",
	Long: `flashnet keeps categories of front/back flashcards and walks you through
the ones you do not know yet.

Run "flashnet serve" to host the REST table store and learning sessions, or
point the client commands at a running server with --server and --token.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./flashnet.yaml or ./config/flashnet.yaml)")
	rootCmd.PersistentFlags().String("server", "", "base URL of a running flashnet server")
	rootCmd.PersistentFlags().String("token", "", "bearer token for the server")

	bindFlagToViper("config", rootCmd.PersistentFlags().Lookup("config"))
	bindFlagToViper("remote.base_url", rootCmd.PersistentFlags().Lookup("server"))
	bindFlagToViper("remote.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindEnv("remote.token", "FLASHNET_TOKEN")
}
