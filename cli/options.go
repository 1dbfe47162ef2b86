package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/akamensky/argparse"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/config"
	"github.com/yllada/mullvad-rotate/relay"
)

// Print targets accepted by --print.
const (
	PrintCountries = "countries"
	PrintCities    = "cities"
	PrintServers   = "servers"
)

// multiValueFlags take every following token up to the next flag.
var multiValueFlags = map[string]bool{
	"--countries": true,
	"--cities":    true,
	"--servers":   true,
	"--isp":       true,
	"--isp-not":   true,
}

// UsageError is a command line that could not be parsed. Usage holds
// the text to show the user.
type UsageError struct {
	Usage string
	Err   error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Invocation is a parsed command line.
type Invocation struct {
	Print      string
	ConfigPath string
	Refresh    bool
	Version    bool

	countries    []string
	cities       []relay.Location
	servers      []string
	isp          []string
	ispNot       []string
	protocol     string
	ownership    string
	stboot       string
	minBandwidth string
	flags        relay.Flags
}

// Verbose reports whether --verbose was given.
func (inv *Invocation) Verbose() bool { return inv.flags.Verbose }

// expandArgs rewrites greedy multi-value flags into the repeated form
// the parser understands: "--countries us se" becomes
// "--countries us --countries se". City values are consumed in pairs.
func expandArgs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !multiValueFlags[arg] {
			out = append(out, arg)
			continue
		}

		var values []string
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			values = append(values, args[i])
		}
		if len(values) == 0 {
			// let the parser report the missing value
			out = append(out, arg)
			continue
		}

		if arg == "--cities" {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("%w: --cities takes <country> <city> pairs", common.ErrInvalidOption)
			}
			for j := 0; j < len(values); j += 2 {
				out = append(out, arg, values[j]+" "+values[j+1])
			}
			continue
		}
		for _, v := range values {
			out = append(out, arg, v)
		}
	}
	return out, nil
}

// Parse parses the command line; args[0] is the program name. Parser
// failures are returned as *UsageError, invalid values wrap
// common.ErrInvalidOption.
func Parse(args []string) (*Invocation, error) {
	parser := argparse.NewParser(common.AppName, "Rotate the Mullvad VPN relay within a set of constraints")

	printTarget := parser.Selector("", "print", []string{PrintCountries, PrintCities, PrintServers},
		&argparse.Options{Help: "Print the available countries, cities or servers and exit"})
	countries := parser.StringList("", "countries", &argparse.Options{Help: "Country codes to rotate through"})
	cities := parser.StringList("", "cities", &argparse.Options{Help: "<country> <city> pairs to rotate through"})
	servers := parser.StringList("", "servers", &argparse.Options{Help: "Hostnames to rotate through"})
	protocol := parser.Selector("", "tunnel-protocol", []string{"any", "wireguard", "openvpn"},
		&argparse.Options{Help: "Only use relays of this tunnel protocol"})
	ownership := parser.Selector("", "ownership", []string{"any", "owned", "rented"},
		&argparse.Options{Help: "Only use owned or rented relays"})
	stboot := parser.Selector("", "stboot", []string{"any", "true", "false"},
		&argparse.Options{Help: "Only use relays that do or do not run from RAM"})
	isp := parser.StringList("", "isp", &argparse.Options{Help: "Only use relays of these providers"})
	ispNot := parser.StringList("", "isp-not", &argparse.Options{Help: "Never use relays of these providers"})
	minBandwidth := parser.String("", "min-bandwidth", &argparse.Options{Help: "Minimum port speed in Gbit/s"})
	random := parser.Flag("", "random", &argparse.Options{Help: "Pick the next candidate at random"})
	countriesAsServers := parser.Flag("", "countries-as-servers", &argparse.Options{Help: "Rotate through every server of the available countries"})
	citiesAsServers := parser.Flag("", "cities-as-servers", &argparse.Options{Help: "Rotate through every server of the given cities"})
	pickCountry := parser.Flag("", "pick-country", &argparse.Options{Help: "Switch country and reconnect"})
	pickCity := parser.Flag("", "pick-city", &argparse.Options{Help: "Switch city and reconnect"})
	verbose := parser.Flag("", "verbose", &argparse.Options{Help: "Show the available candidates and debug logging"})
	refresh := parser.Flag("", "refresh", &argparse.Options{Help: "Refetch the relay list even if the cache is fresh"})
	configPath := parser.String("", "config", &argparse.Options{Help: "Path of the configuration file"})
	version := parser.Flag("", "version", &argparse.Options{Help: "Show version and exit"})

	expanded, err := expandArgs(args)
	if err != nil {
		return nil, err
	}
	if err := parser.Parse(expanded); err != nil {
		return nil, &UsageError{Usage: parser.Usage(err), Err: err}
	}

	inv := &Invocation{
		Print:        *printTarget,
		ConfigPath:   *configPath,
		Refresh:      *refresh,
		Version:      *version,
		countries:    *countries,
		servers:      *servers,
		isp:          *isp,
		ispNot:       *ispNot,
		protocol:     *protocol,
		ownership:    *ownership,
		stboot:       *stboot,
		minBandwidth: *minBandwidth,
		flags: relay.Flags{
			CountriesAsServers: *countriesAsServers,
			CitiesAsServers:    *citiesAsServers,
			Random:             *random,
			PickCountry:        *pickCountry,
			PickCity:           *pickCity,
			Verbose:            *verbose,
		},
	}

	inv.cities, err = config.Defaults{Cities: *cities}.CityLocations()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Constraints builds the constraint set. Axes left unset on the command
// line take their value from defaults.
func (inv *Invocation) Constraints(defaults config.Defaults) (*relay.ConstraintSet, error) {
	opts := relay.Options{
		Countries:         pick(inv.countries, defaults.Countries),
		Servers:           pick(inv.servers, defaults.Servers),
		Providers:         pick(inv.isp, defaults.ISP),
		ExcludedProviders: pick(inv.ispNot, defaults.ISPNot),
		Flags:             inv.flags,
	}

	opts.Cities = inv.cities
	if len(opts.Cities) == 0 {
		defaultCities, err := defaults.CityLocations()
		if err != nil {
			return nil, err
		}
		opts.Cities = defaultCities
	}

	var err error
	if opts.Protocol, err = relay.ParseProtocol(first(inv.protocol, defaults.TunnelProtocol)); err != nil {
		return nil, err
	}
	if opts.Ownership, err = relay.ParseOwnership(first(inv.ownership, defaults.Ownership)); err != nil {
		return nil, err
	}
	if opts.Stboot, err = relay.ParseStboot(first(inv.stboot, defaults.Stboot)); err != nil {
		return nil, err
	}

	opts.MinBandwidth = defaults.MinBandwidth
	if inv.minBandwidth != "" {
		n, err := strconv.Atoi(inv.minBandwidth)
		if err != nil {
			return nil, fmt.Errorf("%w: --min-bandwidth %q is not an integer", common.ErrInvalidOption, inv.minBandwidth)
		}
		opts.MinBandwidth = n
	}

	return relay.NewConstraintSet(opts)
}

func pick(cli, defaults []string) []string {
	if len(cli) > 0 {
		return cli
	}
	return defaults
}

func first(cli, defaults string) string {
	if cli != "" {
		return cli
	}
	return defaults
}

// IsUsageError reports whether err came from the argument parser.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}
