/*
Copyright © 2026 CrisisLink Authors

*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	devconfig "github.com/crisislink/crisislink/dev/config"
	"github.com/crisislink/crisislink/server"
	"github.com/crisislink/crisislink/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a crisislink server",
	Long:  `The crisislink server hosts the emergency profile API: accounts, the intake wizard, public emergency pages & professional access claims`,
	Run: func(cmd *cobra.Command, args []string) {
		if !isDevEnv && serverConfigFile == "" {
			cobra.CheckErr(formattedError("--sconfig is required outside of dev mode"))
		}

		server.Start(serverConfig(), isDevEnv)
	},
}

var serverConfigFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config for server")
}

func serverConfig() *viper.Viper {
	config := viper.New()

	if isDevEnv {
		serverConfigFile = devConfigFilePath()
	}

	config.SetConfigFile(serverConfigFile)
	config.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	return config
}

// devConfigFilePath returns the dev-mode config path, writing the default
// config file first if there isn't one yet.
func devConfigFilePath() string {
	workingDir, err := os.Getwd()
	if err != nil {
		log.Panic(err)
	}

	configDir := filepath.Join(workingDir, "dev", "config")
	if err := utils.CreateDirIfNotExist(configDir); err != nil {
		log.Panic(err)
	}

	configFilePath := filepath.Join(configDir, "server.yml")
	if !utils.FileExist(configFilePath) {
		if err := ioutil.WriteFile(configFilePath, []byte(devconfig.SERVER_YML), 0600); err != nil {
			log.Panic(err)
		}
	}

	return configFilePath
}
