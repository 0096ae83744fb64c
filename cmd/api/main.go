package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/shlomim/gemachbook/pkg/config"
	"github.com/shlomim/gemachbook/pkg/guarantee"
	"github.com/shlomim/gemachbook/pkg/ledger"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shlomim/gemachbook/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	logger  *zap.Logger
}

func NewServer(s store.Storage, logger *zap.Logger, threshold decimal.Decimal) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, logger, threshold),
		storage: s,
		logger:  logger,
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
	}
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

// statusWriter captures the response code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case sw.status >= 500:
				logger.Error("http request", fields...)
			case sw.status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError maps business-rule rejections onto HTTP statuses: not-found to
// 404, malformed input to 400, state conflicts to 409.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ledger.ErrBadAmount),
		errors.Is(err, ledger.ErrReturnBeforeLoan),
		errors.Is(err, ledger.ErrAutoPaymentTooBig),
		errors.Is(err, ledger.ErrInvalidIDNumber),
		errors.Is(err, ledger.ErrFutureDate),
		errors.Is(err, models.ErrDetailsMismatch),
		errors.Is(err, guarantee.ErrBadAmount),
		errors.Is(err, guarantee.ErrBadSchedule):
		code = http.StatusBadRequest
	case errors.Is(err, ledger.ErrExceedsBalance),
		errors.Is(err, ledger.ErrExceedsTotalDebt),
		errors.Is(err, ledger.ErrBlacklisted),
		errors.Is(err, ledger.ErrLoanTransferred),
		errors.Is(err, ledger.ErrAlreadyTransferred),
		errors.Is(err, ledger.ErrNoGuarantors),
		errors.Is(err, ledger.ErrNothingOutstanding),
		errors.Is(err, ledger.ErrDuplicateIDNumber),
		errors.Is(err, ledger.ErrDuplicatePhone),
		errors.Is(err, ledger.ErrHasActiveLoans),
		errors.Is(err, ledger.ErrHasGuarantees),
		errors.Is(err, ledger.ErrDepositWithdrawn),
		errors.Is(err, ledger.ErrBelowRepaid),
		errors.Is(err, ledger.ErrDisbursementRow),
		errors.Is(err, guarantee.ErrExceedsBalance),
		errors.Is(err, guarantee.ErrNotTransferred),
		errors.Is(err, guarantee.ErrNoGuarantors):
		code = http.StatusConflict
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

// ---- people handlers ----

func (s *Server) createBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	var b models.Borrower
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateBorrower(&b)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listBorrowersHandler(w http.ResponseWriter, r *http.Request) {
	borrowers, err := s.storage.GetAllBorrowers()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, borrowers)
}

func (s *Server) deleteBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteBorrower(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createGuarantorHandler(w http.ResponseWriter, r *http.Request) {
	var g models.Guarantor
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateGuarantor(&g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listGuarantorsHandler(w http.ResponseWriter, r *http.Request) {
	guarantors, err := s.storage.GetAllGuarantors()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, guarantors)
}

func (s *Server) deleteGuarantorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid guarantor ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteGuarantor(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createDepositorHandler(w http.ResponseWriter, r *http.Request) {
	var d models.Depositor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateDepositor(&d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// ---- loan handlers ----

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var loan models.Loan
	if err := json.NewDecoder(r.Body).Decode(&loan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateLoan(&loan)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) overdueLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.OverdueLoans()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteLoan(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) editLoanAmountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.AdvancedEditLoanAmount(id, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

// ---- payment handlers ----

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount  decimal.Decimal        `json:"amount"`
		Date    time.Time              `json:"date"`
		Method  models.PaymentMethod   `json:"method"`
		Details *models.PaymentDetails `json:"details"`
		Notes   string                 `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.ledger.RecordPayment(id, ledger.PaymentRequest{
		Amount:  req.Amount,
		Date:    req.Date,
		Method:  req.Method,
		Details: req.Details,
		Notes:   req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeletePayment(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allocatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerID uuid.UUID       `json:"borrower_id"`
		Amount     decimal.Decimal `json:"amount"`
		Date       time.Time       `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	allocations, err := s.ledger.AllocatePayment(req.BorrowerID, req.Amount, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, allocations)
}

// ---- transfer & guarantor debt handlers ----

func (s *Server) transferLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	var req struct {
		TransferredBy     string                 `json:"transferred_by"`
		PaymentType       models.DebtPaymentType `json:"payment_type"`
		DueDate           time.Time              `json:"due_date"`
		InstallmentsCount int                    `json:"installments_count"`
		Notes             string                 `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	debts, err := s.ledger.TransferLoanToGuarantors(id, req.TransferredBy, guarantee.TransferOptions{
		PaymentType:       req.PaymentType,
		DueDate:           req.DueDate,
		InstallmentsCount: req.InstallmentsCount,
		Notes:             req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, debts)
}

func (s *Server) borrowerPaymentAfterTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Date   time.Time       `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.ledger.RecordBorrowerPaymentAfterTransfer(id, req.Amount, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listDebtsHandler(w http.ResponseWriter, r *http.Request) {
	debts, err := s.storage.GetAllGuarantorDebts()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, debts)
}

func (s *Server) recordDebtPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid debt ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Date   time.Time       `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.ledger.RecordGuarantorDebtPayment(id, req.Amount, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) sweepDebtsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blacklist bool `json:"blacklist"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	entries, err := s.ledger.SweepOverdueDebts()
	if err != nil {
		s.writeError(w, err)
		return
	}
	blacklisted := 0
	if req.Blacklist {
		blacklisted, err = s.ledger.BlacklistOverdueGuarantors(entries)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"overdue":     entries,
		"blacklisted": blacklisted,
	})
}

// ---- deposit & donation handlers ----

func (s *Server) createDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DepositorID uuid.UUID       `json:"depositor_id"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.ledger.RecordDeposit(req.DepositorID, req.Amount, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) withdrawDepositHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid deposit ID", http.StatusBadRequest)
		return
	}
	d, err := s.ledger.WithdrawDeposit(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) listDepositsHandler(w http.ResponseWriter, r *http.Request) {
	deposits, err := s.storage.GetAllDeposits()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deposits)
}

func (s *Server) createDonationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DonorName string          `json:"donor_name"`
		Amount    decimal.Decimal `json:"amount"`
		Date      time.Time       `json:"date"`
		Notes     string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.ledger.RecordDonation(req.DonorName, req.Amount, req.Date, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) listDonationsHandler(w http.ResponseWriter, r *http.Request) {
	donations, err := s.storage.GetAllDonations()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, donations)
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/borrowers", s.listBorrowersHandler).Methods("GET")
	api.HandleFunc("/borrowers", s.createBorrowerHandler).Methods("POST")
	api.HandleFunc("/borrowers/{id}", s.deleteBorrowerHandler).Methods("DELETE")

	api.HandleFunc("/guarantors", s.listGuarantorsHandler).Methods("GET")
	api.HandleFunc("/guarantors", s.createGuarantorHandler).Methods("POST")
	api.HandleFunc("/guarantors/{id}", s.deleteGuarantorHandler).Methods("DELETE")

	api.HandleFunc("/depositors", s.createDepositorHandler).Methods("POST")

	api.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/loans/overdue", s.overdueLoansHandler).Methods("GET")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	api.HandleFunc("/loans/{id}/amount", s.editLoanAmountHandler).Methods("PATCH")
	api.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/transfer", s.transferLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/borrower-payment", s.borrowerPaymentAfterTransferHandler).Methods("POST")

	api.HandleFunc("/payments/allocate", s.allocatePaymentHandler).Methods("POST")
	api.HandleFunc("/payments/{id}", s.deletePaymentHandler).Methods("DELETE")

	api.HandleFunc("/guarantor-debts", s.listDebtsHandler).Methods("GET")
	api.HandleFunc("/guarantor-debts/sweep", s.sweepDebtsHandler).Methods("POST")
	api.HandleFunc("/guarantor-debts/{id}/payments", s.recordDebtPaymentHandler).Methods("POST")

	api.HandleFunc("/deposits", s.listDepositsHandler).Methods("GET")
	api.HandleFunc("/deposits", s.createDepositHandler).Methods("POST")
	api.HandleFunc("/deposits/{id}/withdraw", s.withdrawDepositHandler).Methods("POST")

	api.HandleFunc("/donations", s.listDonationsHandler).Methods("GET")
	api.HandleFunc("/donations", s.createDonationHandler).Methods("POST")

	return router
}

func main() {
	godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize sqlite store", zap.Error(err))
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore, logger, cfg.HighRiskThreshold)
	router := server.newRouter()
	router.Use(requestLogger(logger))

	// Periodic sweep: flag past-due guarantor debts and refresh exposure stats.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := server.ledger.SweepOverdueDebts(); err != nil {
				logger.Error("overdue sweep failed", zap.Error(err))
			}
			if err := server.ledger.RefreshGuarantorStats(); err != nil {
				logger.Error("guarantor stats refresh failed", zap.Error(err))
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
