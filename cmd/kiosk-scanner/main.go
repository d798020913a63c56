// Package main 收银台扫码枪客户端：从标准输入读取扫码结果，登录店面后查询款号
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/logger"
	"github.com/MorseWayne/planet_shoes/internal/scanner"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type catalogView struct {
	Catalog struct {
		ModelID     string `json:"model_id"`
		DisplayName string `json:"display_name"`
		TotalStock  int    `json:"total_stock"`
		Available   bool   `json:"available"`
		Brands      []struct {
			BrandName string `json:"brand_name"`
		} `json:"brands"`
	} `json:"catalog"`
}

// storefront 店面 API 客户端
type storefront struct {
	base  string
	token string
	http  *http.Client
}

func (s *storefront) call(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", res.StatusCode, err)
	}
	if res.StatusCode >= 300 {
		return &env, fmt.Errorf("%s", env.Message)
	}
	return &env, nil
}

func (s *storefront) login(ctx context.Context, email, password string) error {
	env, err := s.call(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return err
	}
	s.token = out.Token
	return nil
}

func (s *storefront) lookup(ctx context.Context, style string) (*catalogView, string, error) {
	env, err := s.call(ctx, http.MethodGet, "/api/v1/catalog/models/"+url.PathEscape(style), nil)
	if err != nil {
		return nil, "", err
	}
	var view catalogView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return nil, "", err
	}
	return &view, env.Message, nil
}

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "Storefront base URL")
		email    = flag.String("email", os.Getenv("KIOSK_EMAIL"), "Login email")
		password = flag.String("password", os.Getenv("KIOSK_PASSWORD"), "Login password")
		level    = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	lg, err := logger.New("dev", *level, "console", "kiosk-scanner", "")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sf := &storefront{base: strings.TrimRight(*server, "/"), http: &http.Client{Timeout: 10 * time.Second}}
	if err := sf.login(ctx, *email, *password); err != nil {
		lg.Sugar().Fatalw("login failed", "err", err)
	}

	device := scanner.NewLineDevice(os.Stdin)
	fmt.Println("Listo para escanear. Ctrl+C para salir.")
	for {
		style, err := scanner.ScanStyle(ctx, device, scanner.TextDecoder, lg)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return
		case errors.Is(err, scanner.ErrInvalidCode):
			fmt.Println("Código no válido, intenta de nuevo.")
			continue
		case err != nil:
			var camErr *scanner.CameraUnavailableError
			if errors.As(err, &camErr) {
				lg.Sugar().Fatalw(camErr.UserMessage(), "err", err)
			}
			lg.Sugar().Fatalw("scan failed", "err", err)
		}

		view, msg, err := sf.lookup(ctx, style)
		if err != nil {
			lg.Warn("lookup failed", zap.String("style", style), zap.Error(err))
			fmt.Println(err)
			continue
		}
		printView(style, view, msg)
	}
}

func printView(style string, view *catalogView, msg string) {
	if len(view.Catalog.Brands) == 0 {
		fmt.Printf("%s: %s\n", style, msg)
		return
	}
	brands := make([]string, 0, len(view.Catalog.Brands))
	for _, b := range view.Catalog.Brands {
		brands = append(brands, b.BrandName)
	}
	status := "agotado"
	if view.Catalog.Available {
		status = fmt.Sprintf("%d pares", view.Catalog.TotalStock)
	}
	fmt.Printf("%s %s [%s] %s\n", style, view.Catalog.DisplayName, strings.Join(brands, ", "), status)
}
