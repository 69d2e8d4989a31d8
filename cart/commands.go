package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/cart/logic"
	"storefront/cart/remote"
	"storefront/cart/store"
	"storefront/cart/web"
)

const shutdownTimeout = 10 * time.Second

var (
	flagPort   string
	flagCartID string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront-cart",
		Short:         "Cart page backed by the remote cart service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagCartID, "cart-id", "", "cart to operate on (overrides CART_ID)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cart page over HTTP",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&flagPort, "port", "", "HTTP port (overrides PORT)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current cart with its totals",
		RunE:  runShow,
	}

	root.AddCommand(serve, show)
	return root
}

// session wires the remote client, cart manager and page together.
type session struct {
	cfg     Config
	logger  *zap.Logger
	client  *remote.Client
	manager *store.Manager
	page    logic.CartPage
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flagCartID != "" {
		cfg.CartID = flagCartID
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.ensureCartID() {
		logger.Info("no cart id configured, starting a new cart", zap.String("cart_id", cfg.CartID))
	}

	client, err := remote.NewClient(cfg.CartEndpoint, cfg.CartID, cfg.RequestTimeout)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect to cart service: %w", err)
	}

	manager := store.NewManager(client, logger)
	return &session{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		manager: manager,
		page:    logic.NewCartPage(manager, logic.NewSerializer(), logger),
	}, nil
}

func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		s.logger.Warn("close cart client", zap.Error(err))
	}
	_ = s.logger.Sync()
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.manager.Refresh(ctx); err != nil {
		// The page starts empty and the next successful mutation resyncs it.
		s.logger.Warn("initial cart refresh failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.cfg.Port),
		Handler:           web.NewHandler(s.page, s.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("cart page server started",
			zap.String("port", s.cfg.Port),
			zap.String("cart_endpoint", s.cfg.CartEndpoint),
			zap.String("cart_id", s.cfg.CartID))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down cart page server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("fetch cart %s: %w", s.cfg.CartID, err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), s.page.Summary())
	return err
}
