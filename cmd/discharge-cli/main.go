// Discharge CLI — инструмент оператора робота выписки.
//
// Использование:
//
//	discharge [--config FILE] [--json] <command> [flags]
//
// Команды:
//
//	run       Обработать элемент из JSON-файла без очереди
//	enqueue   Поставить элемент в очередь воркера
//	topology  Показать схему очередей RabbitMQ
//	config    Показать эффективную конфигурацию
//	cpr       Расшифровать CPR-номер
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/discharge/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "discharge",
		Short:         "Discharge CLI — dental discharge robot at age 22",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $DISCHARGE_CONFIG_PATH or ./discharge.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	configFn := cli.LoadConfig(&configPath)
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(configFn, outputFn),
		cli.NewEnqueueCmd(configFn, outputFn),
		cli.NewTopologyCmd(),
		cli.NewConfigCmd(configFn, outputFn),
		cli.NewCPRCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
