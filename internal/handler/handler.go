package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/config"
	"github.com/tesfam/kiraypay/internal/errHandler"
	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/helper"
	"github.com/tesfam/kiraypay/internal/payout"
	"github.com/tesfam/kiraypay/internal/reconciliation"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/settlement"
	"github.com/tesfam/kiraypay/internal/smtp"
	"github.com/tesfam/kiraypay/internal/split"
	"github.com/tesfam/kiraypay/internal/stream"
)

type RouteHandler struct {
	DB             repository.Database
	ErrHandler     *errHandler.ErrorHandler
	Helper         *helper.HelperRepository
	Mailer         smtp.MailerInterface
	Config         *config.Config
	Fx             *fx.Service
	Settlement     *settlement.Engine
	Payouts        *payout.Processor
	Reconciliation *reconciliation.Checker
	Audit          *auditlog.Recorder
	Calculator     *split.Calculator
	Kafka          *stream.KafkaStream
}

func NewRouteHandler(handler *RouteHandler) *RouteHandler {
	return &RouteHandler{
		DB:             handler.DB,
		ErrHandler:     handler.ErrHandler,
		Helper:         handler.Helper,
		Mailer:         handler.Mailer,
		Config:         handler.Config,
		Fx:             handler.Fx,
		Settlement:     handler.Settlement,
		Payouts:        handler.Payouts,
		Reconciliation: handler.Reconciliation,
		Audit:          handler.Audit,
		Calculator:     handler.Calculator,
		Kafka:          handler.Kafka,
	}
}

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Limit     int
	Offset    int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse start_date if provided
	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse("2006-01-02", startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	// Parse end_date if provided
	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse("2006-01-02", endDateStr)
		if err == nil {
			queryValues.EndDate = &parsedEnd
		}
	}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 1 {
			offset = (parsedOffset - 1) * limit
		}
	}
	queryValues.Offset = offset

	// search params
	searchQuery := r.URL.Query().Get("search")
	queryValues.Search = searchQuery

	return queryValues
}
