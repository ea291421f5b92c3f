// Package nginx generates and installs reverse-proxy site definitions using
// the available/enabled sites convention. The global configuration is
// syntax-checked before any reload, and the daemon is only ever reloaded,
// never restarted — a bad site file must not take down a working proxy.
package nginx

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/domain"
)

const (
	uploadStageDir = "/tmp"
	siteFileMode   = 0o644
)

// siteTemplate routes all hostnames and paths on the listen port to the
// application's loopback port, keeping WebSocket upgrades working and
// bypassing the proxy cache for upgraded connections.
const siteTemplate = `server {
    listen {{ .ListenPort }};
    server_name _;

    location / {
        proxy_pass http://127.0.0.1:{{ .AppPort }};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $host;
        proxy_cache_bypass $http_upgrade;
    }
}
`

// installScript atomically moves the staged site file into sites-available,
// replaces the sites-enabled link, and reloads only after the syntax check
// passes. With strict shell semantics a failed check aborts before reload.
const installScript = `
staged="$1"
name="$2"
sudo mv "$staged" "/etc/nginx/sites-available/$name"
sudo ln -sfn "/etc/nginx/sites-available/$name" "/etc/nginx/sites-enabled/$name"
sudo nginx -t
sudo systemctl reload nginx
`

// removeScript deletes the site files and reloads best-effort; a failing
// syntax check skips the reload rather than failing teardown.
const removeScript = `
name="$1"
sudo rm -f "/etc/nginx/sites-enabled/$name" "/etc/nginx/sites-available/$name"
if sudo nginx -t; then
    sudo systemctl reload nginx
fi
`

//nolint:gochecknoglobals // parsed once at startup
var siteTmpl = template.Must(template.New("site").Parse(siteTemplate))

// SiteConfigurator implements domain.ProxyConfigurator over a Runner.
type SiteConfigurator struct {
	runner domain.Runner
	log    *logger.Logger
}

var _ domain.ProxyConfigurator = (*SiteConfigurator)(nil)

// NewSiteConfigurator creates a configurator driving the given runner.
func NewSiteConfigurator(runner domain.Runner, log *logger.Logger) *SiteConfigurator {
	return &SiteConfigurator{runner: runner, log: log}
}

// Install renders the site definition, stages it on the remote host, moves
// it into sites-available, links it into sites-enabled, and reloads the
// proxy after a successful syntax check. Validation failure is fatal.
func (c *SiteConfigurator) Install(ctx context.Context, site domain.ProxySite) error {
	content, err := RenderSite(site)
	if err != nil {
		return err
	}

	staged := uploadStageDir + "/" + site.FileName()
	if uploadErr := c.runner.Upload(ctx, content, staged, siteFileMode); uploadErr != nil {
		return fmt.Errorf("failed to stage site file: %w", uploadErr)
	}

	c.log.Infof("Installing proxy site %s (port %d -> 127.0.0.1:%d)",
		site.FileName(), site.ListenPort, site.AppPort)

	if _, runErr := c.runner.RunScript(ctx, installScript, staged, site.FileName()); runErr != nil {
		return fmt.Errorf("failed to install proxy site %s: %w", site.FileName(), runErr)
	}

	c.log.Info("Proxy configuration validated and reloaded")
	return nil
}

// Remove deletes the project's site files and reloads the proxy best-effort.
func (c *SiteConfigurator) Remove(ctx context.Context, name string) error {
	fileName := name + ".conf"
	if _, err := c.runner.RunScript(ctx, removeScript, fileName); err != nil {
		c.log.Warnf("Failed to remove proxy site %s: %v", fileName, err)
	}
	return nil
}

// RenderSite produces the site definition for a proxy site.
func RenderSite(site domain.ProxySite) ([]byte, error) {
	var buf bytes.Buffer
	if err := siteTmpl.Execute(&buf, site); err != nil {
		return nil, fmt.Errorf("failed to render site definition: %w", err)
	}
	return buf.Bytes(), nil
}
