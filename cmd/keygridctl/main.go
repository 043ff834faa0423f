package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/seagrayinc/keygrid/internal/config"
	"github.com/seagrayinc/keygrid/internal/usbraw"
	"github.com/seagrayinc/keygrid/pkg/deck"
	"github.com/seagrayinc/keygrid/pkg/hid"
)

func main() {
	var (
		list       = flag.Bool("list", false, "list attached devices and exit")
		modelsPath = flag.String("models", "", "YAML file with extra model definitions")
		brightness = flag.Int("brightness", -1, "set brightness percentage")
		fill       = flag.String("fill", "", "fill a key with a color, e.g. 3=ff8800")
		clear      = flag.Bool("clear", false, "clear all keys")
		reset      = flag.Bool("reset", false, "reset to the standby logo")
		info       = flag.Bool("info", false, "print firmware version and serial number")
		listen     = flag.Bool("listen", false, "print key events until interrupted")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	if *list {
		if err := listDevices(); err != nil {
			fatal(err)
		}
		return
	}

	var custom []deck.Properties
	if *modelsPath != "" {
		var err error
		custom, err = config.Load(*modelsPath)
		if err != nil {
			fatal(err)
		}
	}

	d, err := openDevice(custom)
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	if *info {
		fw, err := d.FirmwareVersion()
		if err != nil {
			fatal(err)
		}
		serial, err := d.SerialNumber()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("model: %s\nfirmware: %s\nserial: %s\n", d.Properties().Model, fw, serial)
	}

	if *brightness >= 0 {
		if err := d.SetBrightness(*brightness); err != nil {
			fatal(err)
		}
	}

	if *clear {
		if err := d.ClearAllKeys(); err != nil {
			fatal(err)
		}
	}

	if *fill != "" {
		key, r, g, b, err := parseFill(*fill)
		if err != nil {
			fatal(err)
		}
		if err := d.FillColor(key, r, g, b); err != nil {
			fatal(err)
		}
	}

	if *reset {
		if err := d.ResetToLogo(); err != nil {
			fatal(err)
		}
	}

	if *listen {
		for ev := range d.Keys(ctx) {
			state := "released"
			if ev.Pressed {
				state = "pressed"
			}
			fmt.Printf("key %d %s\n", ev.Key, state)
		}
	}
}

func listDevices() error {
	mgr, err := hid.NewManager()
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return err
	}

	found := 0
	for _, info := range infos {
		if info.VendorID != deck.VendorID {
			continue
		}
		found++
		name := "(not in model table)"
		if p, ok := deck.PropertiesByProductID(info.ProductID); ok {
			name = p.Model
		}
		fmt.Printf("%04x:%04x %-10s serial=%s path=%s\n",
			info.VendorID, info.ProductID, name, info.Serial, info.Path)
	}
	if found > 0 {
		return nil
	}

	// Nothing on the HID layer; check the raw USB layer to tell "not
	// plugged in" apart from "OS driver problem".
	raw, err := usbraw.List(deck.VendorID)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		fmt.Println("no devices found")
		return nil
	}
	for _, info := range raw {
		fmt.Printf("%04x:%04x %s (visible on raw USB only; check HID permissions/driver)\n",
			info.VendorID, info.ProductID, info.Product)
	}
	return nil
}

func openDevice(custom []deck.Properties) (*deck.Device, error) {
	if len(custom) == 0 {
		return deck.Open()
	}

	mgr, err := hid.NewManager()
	if err != nil {
		return nil, err
	}
	infos, err := mgr.List()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.VendorID != deck.VendorID {
			continue
		}
		for _, p := range custom {
			if p.ProductID != info.ProductID {
				continue
			}
			dev, err := mgr.Open(info)
			if err != nil {
				return nil, err
			}
			return deck.New(dev, p)
		}
	}
	// Fall back to the built-in table.
	return deck.Open()
}

// parseFill parses "key=RRGGBB".
func parseFill(s string) (key, r, g, b int, err error) {
	keyStr, hexStr, ok := strings.Cut(s, "=")
	if !ok || len(hexStr) != 6 {
		return 0, 0, 0, 0, fmt.Errorf("fill: want key=RRGGBB, got %q", s)
	}
	key, err = strconv.Atoi(keyStr)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("fill: bad key %q", keyStr)
	}
	rgb, err := strconv.ParseUint(hexStr, 16, 24)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("fill: bad color %q", hexStr)
	}
	return key, int(rgb >> 16), int(rgb >> 8 & 0xFF), int(rgb & 0xFF), nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
