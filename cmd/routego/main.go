/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rulego/routego"
)

const (
	version = "1.0.0"
)

var (
	//是否是查询版本
	ver bool
	//配置文件
	configFile string
	//路由文件，覆盖配置文件中的routes
	routesFile string
)

func init() {
	flag.StringVar(&configFile, "c", "", "配置文件")
	flag.StringVar(&routesFile, "r", "", "路由文件")
	flag.BoolVar(&ver, "v", false, "打印版本")
}

func main() {
	flag.Parse()

	if ver {
		fmt.Printf("RouteGo v%s\n", version)
		os.Exit(0)
	}

	c, err := routego.LoadConfig(configFile)
	if err != nil {
		log.Fatal("error:", err)
	}
	if routesFile != "" {
		c.Routes = routesFile
	}
	ctx, err := routego.NewFromConfig(c)
	if err != nil {
		log.Fatal("error:", err)
	}

	var metricsServer *http.Server
	if c.Metrics.Addr != "" {
		metricsServer = serveMetrics(c.Metrics.Addr, ctx)
	}

	if err := ctx.Start(); err != nil {
		log.Fatal("start routes error:", err)
	}
	log.Printf("use config file=%s routes=%s\n", configFile, c.Routes)

	sigs := make(chan os.Signal, 1)
	// 监听系统信号，包括中断信号和终止信号
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	if err := ctx.Stop(); err != nil {
		log.Printf("stop error: %v", err)
	}
}

// serveMetrics exposes the exchange counters and the Go runtime metrics on /metrics.
func serveMetrics(addr string, ctx *routego.RouteContext) *http.Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), ctx.Config().Metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()
	return server
}
