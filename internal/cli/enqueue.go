package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/mq"
	"github.com/shaiso/discharge/internal/telemetry"
)

// publishTimeout — сколько ждать подтверждения публикации.
const publishTimeout = 10 * time.Second

// NewEnqueueCmd создаёт команду постановки элемента в очередь воркера.
func NewEnqueueCmd(configFn ConfigFunc, outputFn func() *Output) *cobra.Command {
	var itemPath string
	var setupTopology bool

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a work item to the discharge.items queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			cfg, err := configFn()
			if err != nil {
				return err
			}

			payload, err := readPayload(itemPath)
			if err != nil {
				return err
			}

			logger := telemetry.SetupLogger()
			conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
			if err != nil {
				return fmt.Errorf("connect rabbitmq: %w", err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
			defer cancel()

			if setupTopology {
				if err := mq.SetupTopology(ctx, conn); err != nil {
					return fmt.Errorf("setup topology: %w", err)
				}
			}

			id, err := mq.NewPublisher(conn, logger).PublishItem(ctx, payload)
			if err != nil {
				return err
			}

			out.Print([]string{"ITEM_ID", "QUEUE"}, [][]string{{id, string(mq.QueueItems)}}, map[string]string{
				"item_id": id,
				"queue":   string(mq.QueueItems),
			})
			out.Success("Item enqueued")
			return nil
		},
	}

	cmd.Flags().StringVar(&itemPath, "item", "", "Path to work item JSON")
	cmd.Flags().BoolVar(&setupTopology, "setup-topology", false, "Declare exchanges and queues before publishing")
	cmd.MarkFlagRequired("item")

	return cmd
}

// readPayload читает JSON элемента и проверяет его до публикации.
// Некорректный элемент в очереди ушёл бы сразу в DLQ.
func readPayload(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}
	item, err := domain.ParseWorkItem(data, newItemID())
	if err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func newItemID() string {
	return uuid.NewString()
}

// NewTopologyCmd создаёт команду вывода топологии RabbitMQ.
func NewTopologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Show RabbitMQ topology",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), mq.TopologyInfo())
		},
	}
}
