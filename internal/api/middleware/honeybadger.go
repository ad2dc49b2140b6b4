package middleware

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

var (
	honeybadgerOnce    sync.Once
	honeybadgerEnabled bool
)

// configureHoneybadger configures the client once per process from
// HONEYBADGER_API_KEY and GO_ENV. It reports whether reporting is active.
func configureHoneybadger(logger *logrus.Logger) bool {
	honeybadgerOnce.Do(func() {
		apiKey := os.Getenv("HONEYBADGER_API_KEY")
		if apiKey == "" {
			logger.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
			return
		}
		honeybadger.Configure(honeybadger.Configuration{
			APIKey: apiKey,
			Env:    os.Getenv("GO_ENV"),
		})
		honeybadgerEnabled = true
		logger.Info("Honeybadger error reporting is enabled.")
	})
	return honeybadgerEnabled
}

// HoneybadgerMiddleware reports panics and error responses to Honeybadger.
// A panic is notified and re-raised so gin.Recovery still writes the 500.
func HoneybadgerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	if !configureHoneybadger(logger) {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				logger.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		// 404 and 409 are normal answers of this API (unknown key, busy guard).
		if status < 400 || status == 404 || status == 409 {
			return
		}
		if status >= 500 {
			honeybadger.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), c.Request, honeybadger.Tags{"5XX", "http"})
		} else {
			honeybadger.Notify(fmt.Sprintf("Warning: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), honeybadger.Tags{"4XX", "http"})
		}
		logger.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}

// HoneybadgerPanicReporter returns a reporter for panics recovered in
// background tasks, or nil when Honeybadger is not configured.
func HoneybadgerPanicReporter(logger *logrus.Logger) func(component string, recovered any) {
	if !configureHoneybadger(logger) {
		return nil
	}
	return func(component string, recovered any) {
		honeybadger.Notify(fmt.Sprintf("Panic in background task: %v", recovered),
			honeybadger.Context{"component": component}, honeybadger.Tags{"panic", "task"})
	}
}
