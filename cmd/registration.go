package cmd

import (
	"context"
	"event-registration/common/constant"
	"event-registration/inbound/event"
	"event-registration/outbound/store"
	"event-registration/registration"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"log"
	"log/slog"
	"time"
)

func runQueueRegistrationCmd(ctx context.Context) {
	cfg := newCfg("env")

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	st, err := js.Stream(ctx, constant.QueueStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	registrationStore := &store.RegistrationStore{Db: db}
	inventoryStore := &store.InventoryStore{Db: db}

	orchestrator := &registration.Orchestrator{
		Forms:        &store.FormConfigStore{Db: db},
		Inventory:    inventoryStore,
		Store:        registrationStore,
		Codes:        &registration.CodeGenerator{},
		StoreTimeout: cfg.GetDuration("registration.store_timeout"),
	}

	registrationEvent := event.RegistrationEvent{
		Orchestrator:      orchestrator,
		RegistrationStore: registrationStore,
		InventoryStore:    inventoryStore,
		Cache:             cacheClient,
		Publisher:         js,
		CurrencyFormatter: message.NewPrinter(language.English),
		Timeout:           cfg.GetDuration("queue.registration.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:        "consumer:registration",
		FilterSubjects: []string{constant.RegistrationWildcard, constant.InventoryWildcard},
		MaxDeliver:     cfg.GetInt("queue.registration.max_deliver"),
		AckWait:        cfg.GetDuration("queue.registration.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				var eventErr error
				switch msg.Subject() {
				case constant.SubjectRegistrationCreated:
					eventErr = registrationEvent.CreatedHandler(ctx, msg.Data())
				case constant.SubjectPaymentCallback:
					eventErr = registrationEvent.PaymentCallbackHandler(ctx, msg.Data())
				case constant.SubjectInventorySync:
					eventErr = registrationEvent.InventorySyncHandler(ctx, msg.Data())
				}

				if eventErr != nil {
					msg.NakWithDelay(1 * time.Second)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "registration queue consumer started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, "registration queue consumer stopped")
}
