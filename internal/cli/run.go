package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/orchestrator"
	"github.com/shaiso/discharge/internal/robot"
	"github.com/shaiso/discharge/internal/telemetry"
	"github.com/shaiso/discharge/internal/worker"
)

// NewRunCmd создаёт команду обработки одного элемента без очереди.
//
// Команда захватывает ту же блокировку сессии, что и воркер, поэтому
// не запустится, пока воркер работает на этом хосте.
func NewRunCmd(configFn ConfigFunc, outputFn func() *Output) *cobra.Command {
	var itemPath string
	var itemID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a single work item from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			cfg, err := configFn()
			if err != nil {
				return err
			}

			item, err := readItem(itemPath, itemID)
			if err != nil {
				return err
			}

			logger := telemetry.SetupLogger()
			ctx := cmd.Context()

			r, err := robot.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			w := worker.New(worker.Config{
				Processor: r.Orchestrator,
				LockPath:  cfg.Paths.LockFile,
				Logger:    logger,
			})

			res, procErr := w.RunOnce(ctx, item)
			if res != nil {
				out.Print([]string{"FIELD", "VALUE"}, resultRows(item, res, procErr), res)
			}
			if procErr != nil {
				return procErr
			}
			out.Success(fmt.Sprintf("Item %s processed", item.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemPath, "item", "", "Path to work item JSON")
	cmd.Flags().StringVar(&itemID, "id", "", "Queue item ID (default: random)")
	cmd.MarkFlagRequired("item")

	return cmd
}

// readItem читает WorkItem из файла. Пустой id — сгенерировать.
func readItem(path, id string) (*domain.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}
	if id == "" {
		id = newItemID()
	}
	return domain.ParseWorkItem(data, id)
}

func resultRows(item *domain.WorkItem, res *orchestrator.Result, err error) [][]string {
	phases := make([]string, len(res.Phases))
	for i, p := range res.Phases {
		phases[i] = string(p)
	}

	rows := [][]string{
		{"item_id", item.ID},
		{"correlation_id", item.CorrelationID.String()},
		{"outcome", string(res.Outcome)},
		{"phases", strings.Join(phases, " → ")},
	}
	if res.FailedPhase != "" {
		rows = append(rows, []string{"failed_phase", string(res.FailedPhase)})
	}
	if err != nil {
		rows = append(rows, []string{"error", err.Error()})
	}
	if res.Pipeline != nil {
		rows = append(rows,
			[]string{"pipeline_state", string(res.Pipeline.State)},
			[]string{"pipeline_executed", strings.Join(res.Pipeline.Executed, ", ")},
		)
		if res.Pipeline.SkippedBy != "" {
			rows = append(rows, []string{"pipeline_skipped_by", res.Pipeline.SkippedBy})
		}
	}

	names := make([]string, 0, len(res.Artifacts))
	for name := range res.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{"artifact." + name, string(res.Artifacts[name])})
	}

	if res.ReceiptPath != "" {
		rows = append(rows, []string{"receipt", res.ReceiptPath})
	}
	rows = append(rows, []string{"duration", res.Duration.Round(time.Millisecond).String()})
	return rows
}
