/*
Inspection CLI for camera-core.

Dials the local IPC server over its JSON-RPC 2.0 WebSocket and prints
list_cameras/get_camera_controls/get_camera_formats/get_diagnostics results
as formatted text. Also mints auth tokens for manual testing against a
server running with security.require_auth enabled.
*/

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webbertakken/camera-core/internal/config"
	"github.com/webbertakken/camera-core/internal/logging"
	"github.com/webbertakken/camera-core/internal/security"
)

const (
	appName    = "camctl"
	appVersion = "1.0.0"
)

var (
	configPath = flag.String("config", "config/default.yaml", "Path to configuration file")
	host       = flag.String("host", "", "IPC server host (overrides config)")
	port       = flag.Int("port", 0, "IPC server port (overrides config)")
	token      = flag.String("token", "", "Auth token, required when the server has security.require_auth enabled")
	format     = flag.String("format", "table", "Output format (table, json)")
)

func main() {
	flag.Parse()
	logger := logging.NewLogger("camctl")

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	if command == "version" {
		printVersion()
		return
	}
	if command == "help" {
		printUsage()
		return
	}

	configManager := config.CreateConfigManager()
	if err := configManager.LoadConfig(*configPath); err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	cfg := configManager.GetConfig()

	if command == "token" {
		if err := executeToken(cfg, commandArgs); err != nil {
			logger.WithError(err).Fatal("token command failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := executeRPCCommand(ctx, cfg, command, commandArgs); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func executeToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("subject", "camctl", "Token subject")
	expiry := fs.Int("expiry-hours", 24, "Token validity in hours")
	if err := fs.Parse(args); err != nil {
		return err
	}

	validator, err := security.NewTokenValidator(cfg.Security.JWTSecretKey)
	if err != nil {
		return fmt.Errorf("construct token validator: %w", err)
	}
	minted, err := validator.GenerateToken(*subject, *expiry)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	fmt.Println(minted)
	return nil
}

func executeRPCCommand(ctx context.Context, cfg *config.Config, command string, args []string) error {
	client, err := dial(cfg)
	if err != nil {
		return fmt.Errorf("connect to ipc server: %w", err)
	}
	defer client.Close()

	switch command {
	case "list-cameras":
		return rpcAndPrint(client, "list_cameras", nil, printCameraList)
	case "controls":
		id, err := requireDeviceID(args)
		if err != nil {
			return err
		}
		return rpcAndPrint(client, "get_camera_controls", map[string]interface{}{"device_id": id}, printControls)
	case "formats":
		id, err := requireDeviceID(args)
		if err != nil {
			return err
		}
		return rpcAndPrint(client, "get_camera_formats", map[string]interface{}{"device_id": id}, printFormats)
	case "diagnostics":
		id, err := requireDeviceID(args)
		if err != nil {
			return err
		}
		return rpcAndPrint(client, "get_diagnostics", map[string]interface{}{"device_id": id}, printDiagnostics)
	case "health":
		return rpcAndPrint(client, "get_system_health", nil, printRaw)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func requireDeviceID(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("this command requires a device id argument")
	}
	return args[0], nil
}

// rpcClient is a single-shot JSON-RPC 2.0 connection: camctl issues one
// request and reads one matching response per invocation, unlike the
// desktop shell which keeps the connection open for push notifications.
type rpcClient struct {
	conn *websocket.Conn
}

func dial(cfg *config.Config) (*rpcClient, error) {
	h := cfg.Server.Host
	if h == "" || h == "0.0.0.0" {
		h = "127.0.0.1"
	}
	if *host != "" {
		h = *host
	}
	p := cfg.Server.Port
	if *port != 0 {
		p = *port
	}

	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", h, p), Path: cfg.Server.WebSocketPath}
	if *token != "" {
		q := u.Query()
		q.Set("token", *token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &rpcClient{conn: conn}, nil
}

func (c *rpcClient) Close() error { return c.conn.Close() }

func (c *rpcClient) call(method string, params map[string]interface{}) (json.RawMessage, error) {
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("server error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func rpcAndPrint(client *rpcClient, method string, params map[string]interface{}, printer func(json.RawMessage) error) error {
	result, err := client.call(method, params)
	if err != nil {
		return err
	}
	if *format == "json" {
		fmt.Println(string(result))
		return nil
	}
	return printer(result)
}

func printCameraList(raw json.RawMessage) error {
	var devices []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TransportPath string `json:"transportPath"`
		IsConnected   bool   `json:"isConnected"`
	}
	if err := json.Unmarshal(raw, &devices); err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No cameras found")
		return nil
	}
	fmt.Printf("%-24s %-28s %-10s %s\n", "ID", "NAME", "CONNECTED", "TRANSPORT PATH")
	for _, d := range devices {
		fmt.Printf("%-24s %-28s %-10t %s\n", d.ID, d.Name, d.IsConnected, d.TransportPath)
	}
	return nil
}

func printControls(raw json.RawMessage) error {
	var controls []struct {
		Name      string `json:"name"`
		Group     string `json:"group"`
		Kind      string `json:"kind"`
		Current   int32  `json:"current"`
		Supported bool   `json:"supported"`
	}
	if err := json.Unmarshal(raw, &controls); err != nil {
		return err
	}
	fmt.Printf("%-28s %-12s %-8s %-10s %s\n", "NAME", "GROUP", "KIND", "CURRENT", "SUPPORTED")
	for _, c := range controls {
		fmt.Printf("%-28s %-12s %-8s %-10d %t\n", c.Name, c.Group, c.Kind, c.Current, c.Supported)
	}
	return nil
}

func printFormats(raw json.RawMessage) error {
	var formats []struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		FPS         int    `json:"fps"`
		PixelFormat string `json:"pixelFormat"`
	}
	if err := json.Unmarshal(raw, &formats); err != nil {
		return err
	}
	fmt.Printf("%-10s %-6s %s\n", "RESOLUTION", "FPS", "PIXEL FORMAT")
	for _, f := range formats {
		fmt.Printf("%-10s %-6d %s\n", fmt.Sprintf("%dx%d", f.Width, f.Height), f.FPS, f.PixelFormat)
	}
	return nil
}

func printDiagnostics(raw json.RawMessage) error {
	var snap struct {
		FPS          float64 `json:"fps"`
		FrameCount   uint64  `json:"frameCount"`
		DropCount    uint64  `json:"dropCount"`
		DropRate     float64 `json:"dropRate"`
		LatencyMs    float64 `json:"latencyMs"`
		BandwidthBps float64 `json:"bandwidthBps"`
		USBBusInfo   *string `json:"usbBusInfo"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	fmt.Printf("FPS:          %.2f\n", snap.FPS)
	fmt.Printf("Frame count:  %d\n", snap.FrameCount)
	fmt.Printf("Drop count:   %d\n", snap.DropCount)
	fmt.Printf("Drop rate:    %.4f\n", snap.DropRate)
	fmt.Printf("Latency:      %.2f ms\n", snap.LatencyMs)
	fmt.Printf("Bandwidth:    %.0f B/s\n", snap.BandwidthBps)
	if snap.USBBusInfo != nil {
		fmt.Printf("USB bus info: %s\n", *snap.USBBusInfo)
	}
	return nil
}

func printRaw(raw json.RawMessage) error {
	fmt.Println(string(raw))
	return nil
}

func printVersion() {
	fmt.Printf("%s version %s\n", appName, appVersion)
}

func printUsage() {
	fmt.Printf(`%s - camera-core inspection CLI

Usage:
  camctl [flags] <command> [args]

Commands:
  list-cameras              List enumerated cameras
  controls <device_id>      Show current control values for a camera
  formats <device_id>       Show supported capture formats for a camera
  diagnostics <device_id>   Show capture diagnostics for a camera with an active preview
  health                    Show system health report
  token                     Mint a JWT for manual testing against an auth-gated server
  version                   Print version
  help                      Print this message

Flags:
`, appName)
	flag.PrintDefaults()
}
