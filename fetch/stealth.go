package fetch

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthScript masks the usual automation signals before any page script
// runs: the webdriver flag, an empty plugin list, an empty language list
// and the anomalous permissions API responses headless Chrome gives.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });

Object.defineProperty(navigator, 'plugins', {
	get: () => [
		{ name: 'Chrome PDF Plugin' },
		{ name: 'Chrome PDF Viewer' },
		{ name: 'Native Client' },
	],
});

Object.defineProperty(navigator, 'languages', {
	get: () => ['en-US', 'en'],
});

const originalQuery = window.navigator.permissions.query.bind(window.navigator.permissions);
window.navigator.permissions.query = (parameters) =>
	parameters.name === 'notifications'
		? Promise.resolve({ state: Notification.permission })
		: originalQuery(parameters);

window.chrome = window.chrome || { runtime: {} };
`

// injectStealth registers the stealth script to run in every new document
// of the tab before the site's own scripts execute.
func injectStealth() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}
