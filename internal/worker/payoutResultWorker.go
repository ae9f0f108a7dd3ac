package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tesfam/kiraypay/internal/stream"
)

// PayoutResultEvent is the verdict the external money-movement rail
// publishes for a dispatched payout.
type PayoutResultEvent struct {
	PayoutID          string `json:"payout_id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// PayoutResultWorker consumes payout.result events and applies them to the
// payout state machine. Completions and failures are both idempotent, so
// redelivery is harmless.
func (wk *Worker) PayoutResultWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: payoutResultGroupID,
		Topic:   PayoutResultTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			message := e.Value
			log.Printf("Payout result received on %s: %s\n", e.TopicPartition, string(e.Value))

			var result PayoutResultEvent
			if err := json.Unmarshal(message, &result); err != nil {
				log.Printf("Error decoding payout result: %v", err)
				continue
			}

			wk.applyPayoutResult(&result)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) applyPayoutResult(result *PayoutResultEvent) {
	switch result.Status {
	case "completed":
		_, err := wk.Payouts.MarkCompleted(wk.Ctx, nil, result.PayoutID, result.ExternalReference)
		if err != nil {
			log.Printf("Error completing payout %s: %v", result.PayoutID, err)
			return
		}
		log.Printf("Payout %s completed with reference %s", result.PayoutID, result.ExternalReference)
	case "failed":
		_, err := wk.Payouts.MarkFailed(wk.Ctx, nil, result.PayoutID, result.Reason)
		if err != nil {
			log.Printf("Error failing payout %s: %v", result.PayoutID, err)
			return
		}
		log.Printf("Payout %s marked failed: %s", result.PayoutID, result.Reason)
	default:
		log.Printf("Unknown payout result status %q for payout %s", result.Status, result.PayoutID)
	}
}
