package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// renderCardPage opens the internal render page in headless Chromium and
// blocks until the card markup has settled.
func renderCardPage(logger *slog.Logger, targetURL string) (_ *rod.Page, cleanup func(), err error) {
	cleanup = func() {}

	logger.Info("navigating to card render page", slog.String("url", targetURL))

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, cleanup, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Timeout(90 * time.Second)
	if err := browser.Connect(); err != nil {
		return nil, cleanup, fmt.Errorf("connect browser: %w", err)
	}

	page := browser.MustPage(targetURL)
	cleanup = func() {
		if page != nil {
			_ = page.Close()
		}
		_ = browser.Close()
		launch.Cleanup()
	}

	page.MustWaitLoad()

	logger.Info("waiting for card root element")
	if _, err := page.Timeout(30 * time.Second).Element("#card-root"); err != nil {
		return nil, cleanup, fmt.Errorf("wait for card root: %w", err)
	}

	// Wait for webfonts so the shot does not use fallback font metrics.
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	page.MustWaitIdle()
	return page, cleanup, nil
}

// captureCardSnapshot screenshots the card root element as PNG, falling back
// to a full-page capture when the element shot fails.
func captureCardSnapshot(page *rod.Page) ([]byte, error) {
	element, err := page.Timeout(5 * time.Second).Element("#card-root")
	if err == nil {
		if data, shotErr := element.Screenshot(proto.PageCaptureScreenshotFormatPng, 0); shotErr == nil {
			return data, nil
		}
	}

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}
