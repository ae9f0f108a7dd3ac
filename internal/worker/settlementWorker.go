package worker

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tesfam/kiraypay/internal/settlement"
	"github.com/tesfam/kiraypay/internal/stream"
)

// SettlementWorker consumes booking.paid events and settles each one into
// a balanced ledger set. The engine is idempotent on booking_id, so a
// redelivered event is acknowledged without writing anything twice.
func (wk *Worker) SettlementWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: settlementGroupID,
		Topic:   BookingPaidTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			message := e.Value
			log.Printf("Booking paid message received on %s: %s\n", e.TopicPartition, string(e.Value))

			var bookingEvent settlement.BookingPaidEvent
			if err := json.Unmarshal(message, &bookingEvent); err != nil {
				log.Printf("Error decoding booking paid event: %v", err)
				continue
			}

			wk.settleBooking(&bookingEvent)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) settleBooking(ev *settlement.BookingPaidEvent) {
	st, err := wk.Settlement.ProcessBookingPaid(wk.Ctx, ev)
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidEvent) {
			// a malformed event will never succeed on retry, drop it
			log.Printf("Dropping invalid booking paid event %s: %v", ev.BookingID, err)
			return
		}
		log.Printf("Error settling booking %s: %v", ev.BookingID, err)
		return
	}

	log.Printf("Booking %s settled as transaction %s", ev.BookingID, st.ID)
}
