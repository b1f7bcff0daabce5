/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/adapter/restclient"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
	"github.com/eslsoft/flashnet/internal/infrastructure/server"
)

// remote bundles what the client commands need to talk to a server.
type remote struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *restclient.Client
}

func newRemote() (*remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := server.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Remote.Token == "" {
		return nil, fmt.Errorf("no token: pass --token or set FLASHNET_TOKEN (see flashnet token)")
	}
	client, err := restclient.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &remote{cfg: cfg, logger: logger, client: client}, nil
}
