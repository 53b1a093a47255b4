package bootstrap

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"cancelflow-be/internal/analytics"
	"cancelflow-be/internal/config"
	"cancelflow-be/internal/controller"
	"cancelflow-be/internal/flow"
	"cancelflow-be/internal/persistence"
	"cancelflow-be/internal/pkg/logger"
	"cancelflow-be/internal/session"
	"cancelflow-be/internal/store"
)

// Container wires every dependency once, at startup. Construction order is
// storage, store, session, analytics, flow, controllers.
type Container struct {
	Logger  logger.ILogger
	Store   *store.Store
	Session *session.Session
	Flow    *flow.Controller
	PubSub  *gochannel.GoChannel

	SessionController controller.ISessionController
	FlowController    controller.IFlowController
}

func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var codec persistence.Codec
	switch cfg.Storage.Codec {
	case "plain":
		codec = persistence.PlainCodec{}
	default:
		sealed, err := persistence.NewSealedCodec(cfg.Storage.Key)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		codec = sealed
	}

	adapter, err := persistence.NewFileAdapter(cfg.Storage.DataDir, codec)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	st, err := store.New(adapter, sysLogger, store.Options{
		TokenTTL: time.Duration(cfg.Session.TokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	sess := session.New(st)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	tracker := analytics.NewTracker(pubSub, sysLogger)

	flowCtrl := flow.NewController(st, sess, tracker, sysLogger, cfg.Session.ForceDownsell)

	tokenTTL := time.Duration(cfg.Session.TokenTTLMinutes) * time.Minute

	return &Container{
		Logger:  sysLogger,
		Store:   st,
		Session: sess,
		Flow:    flowCtrl,
		PubSub:  pubSub,

		SessionController: controller.NewSessionController(sess, st, tokenTTL),
		FlowController:    controller.NewFlowController(flowCtrl, st, sess),
	}, nil
}
