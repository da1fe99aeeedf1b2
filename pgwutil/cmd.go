/*
Copyright © 2024 the pgwcloud authors.
This file is part of pgwcloud.

pgwcloud is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pgwcloud is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pgwcloud.  If not, see <http://www.gnu.org/licenses/>.
*/

package pgwutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/pgwclouds/pgwcloud"
	"github.com/pgwclouds/pgwcloud/pgw"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	columnSets := []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags(), precipCmd.Flags(), psdCmd.Flags()}
	windowSets := []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags(), fluxCmd.Flags(), signifCmd.Flags(), precipCmd.Flags(), psdCmd.Flags()}
	inputSets := []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags(), fluxCmd.Flags(), signifCmd.Flags(), precipCmd.Flags(), psdCmd.Flags()}

	// Options are the configuration options available to pgwcloud.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies a file that log messages are copied to,
              in addition to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "WRFOut",
			usage: `
              WRFOut is the path to a WRF output file. It is used when
              no Simulations list is given.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   inputSets,
		},
		{
			name: "Simulations",
			usage: `
              Simulations is the path to a TOML file listing the simulations
              to compare, as [[Simulation]] entries with Name and File fields.
              Relative file paths are relative to the directory of the list.`,
			defaultVal: "",
			flagsets:   inputSets,
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the file the results are written to. Files ending
              in .xlsx are written as spreadsheets, other files as text. Results
              are printed if it is empty.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{codCmd.Flags(), psdCmd.Flags(), profileCmd.Flags(), fluxCmd.Flags(), signifCmd.Flags(), precipCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the image file that a figure of the results is saved
              to. The format is chosen by the extension (.png, .pdf, .svg).
              No figure is made if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{psdCmd.Flags(), profileCmd.Flags(), fluxCmd.Flags()},
		},
		{
			name: "Start",
			usage: `
              Start is the first time record to analyze. The default skips
              the first day of 5-minute output as spin-up.`,
			defaultVal: 144,
			flagsets:   windowSets,
		},
		{
			name: "End",
			usage: `
              End is one past the last time record to analyze, or for
              accumulated precipitation the last record. Values below zero
              count back from the number of records.`,
			defaultVal: -1,
			flagsets:   windowSets,
		},
		{
			name: "Column.Y",
			usage: `
              Column.Y is the south_north index of the grid column to analyze.`,
			defaultVal: 60,
			flagsets:   columnSets,
		},
		{
			name: "Column.X",
			usage: `
              Column.X is the west_east index of the grid column to analyze.`,
			defaultVal: 55,
			flagsets:   columnSets,
		},
		{
			name: "Column.Levels",
			usage: `
              Column.Levels is the number of model levels to include,
              counting from the surface.`,
			defaultVal: 93,
			flagsets:   []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Column.RefRecord",
			usage: `
              Column.RefRecord is the time record whose geopotential gives the
              altitude of the model levels at all times. Values below zero
              count back from the number of records.`,
			defaultVal: 288,
			flagsets:   []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Column.NCloud",
			usage: `
              Column.NCloud is the cloud droplet number concentration [m-3].`,
			defaultVal: pgwcloud.DefaultCloudNumber,
			flagsets:   []*pflag.FlagSet{codCmd.Flags(), profileCmd.Flags(), psdCmd.Flags()},
		},
		{
			name: "Column.Categories",
			usage: `
              Column.Categories are the hydrometeor categories to include in
              the optical depth: cloud, rain, ice, snow and graupel. All are
              included if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{codCmd.Flags()},
		},
		{
			name: "LiquidOnly",
			usage: `
              LiquidOnly restricts the optical depth to the liquid categories,
              cloud and rain.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{codCmd.Flags()},
		},
		{
			name: "RadiusGridRefinement",
			usage: `
              RadiusGridRefinement is the number of intervals each interval of
              the radius grid for the droplet effective radius is divided into.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{codCmd.Flags(), psdCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies derived quantities to calculate from the
              optical depth results (cod_total, cod_liquid, cod_frozen,
              cod_<category>, wp_<category> and reff_<category>). It is a map of
              names to expressions. Expressions can use the functions exp, log,
              sqrt, ratio and emissivity.`,
			defaultVal: map[string]string{
				"liquid_fraction":  "ratio(cod_liquid, cod_total)",
				"cloud_emissivity": "emissivity(wp_cloud)",
			},
			flagsets: []*pflag.FlagSet{codCmd.Flags()},
		},
		{
			name: "PSD.N",
			usage: `
              PSD.N is the number concentration [m-3] of the size distribution.`,
			defaultVal: pgwcloud.DefaultCloudNumber,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.Q",
			usage: `
              PSD.Q is the mass mixing ratio [kg/kg] of the size distribution.`,
			defaultVal: 1.e-4,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.P",
			usage: `
              PSD.P is the air pressure [Pa].`,
			defaultVal: 85000.,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.T",
			usage: `
              PSD.T is the air temperature [K].`,
			defaultVal: 270.,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.FromFile",
			usage: `
              PSD.FromFile reads the moments from the WRFOut file at record Start,
              level PSD.Level and grid column Column.Y, Column.X instead of
              using PSD.N, PSD.Q, PSD.P and PSD.T.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.Level",
			usage: `
              PSD.Level is the model level to read moments from.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.Category",
			usage: `
              PSD.Category is the hydrometeor category to read moments for.`,
			defaultVal: "cloud",
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.DMin",
			usage: `
              PSD.DMin is the smallest diameter [m] of the size distribution.`,
			defaultVal: 1.e-7,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.DMax",
			usage: `
              PSD.DMax is the largest diameter [m] of the size distribution.`,
			defaultVal: 1.e-3,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "PSD.Points",
			usage: `
              PSD.Points is the number of diameters of the size distribution.`,
			defaultVal: 200,
			flagsets:   []*pflag.FlagSet{psdCmd.Flags()},
		},
		{
			name: "Profile.MaxLevel",
			usage: `
              Profile.MaxLevel is the level below which the cloud base is searched.`,
			defaultVal: 40,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Border",
			usage: `
              Border is the number of grid cells left out on every side of the
              domain when calculating domain means.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags(), precipCmd.Flags()},
		},
		{
			name: "Flux.AllSky",
			usage: `
              Flux.AllSky is the all-sky flux variable, for example GLW for
              downward longwave radiation at the surface or OLR at the top of
              the atmosphere.`,
			defaultVal: "GLW",
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags()},
		},
		{
			name: "Flux.ClearSky",
			usage: `
              Flux.ClearSky is the clear-sky flux variable matching Flux.AllSky,
              for example LWDNBC or LWUPTC. The cloud radiative effect is not
              calculated if it is empty.`,
			defaultVal: "LWDNBC",
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags()},
		},
		{
			name: "Signif.A",
			usage: `
              Signif.A is the name of the reference simulation in the
              Simulations list.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{signifCmd.Flags()},
		},
		{
			name: "Signif.B",
			usage: `
              Signif.B is the name of the simulation compared to Signif.A.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{signifCmd.Flags()},
		},
		{
			name: "Signif.Variable",
			usage: `
              Signif.Variable is the [time, y, x] variable to compare.`,
			defaultVal: "GLW",
			flagsets:   []*pflag.FlagSet{signifCmd.Flags()},
		},
		{
			name: "Signif.LagCorrected",
			usage: `
              Signif.LagCorrected corrects the standard errors for lag-1
              autocorrelation.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{signifCmd.Flags()},
		},
		{
			name: "Signif.NetCDFFile",
			usage: `
              Signif.NetCDFFile is a netCDF file that the mean, standard error
              and difference fields are written to. No file is written if it
              is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{signifCmd.Flags()},
		},
		{
			name: "Perturb.Files",
			usage: `
              Perturb.Files are the met_em files to perturb in place.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
		{
			name: "Perturb.AirDT",
			usage: `
              Perturb.AirDT are the air temperature changes [K] on the 19 CMIP6
              standard pressure levels from 1000 to 10 hPa. Air temperature is
              not changed if it is empty.`,
			defaultVal: pgw.NorESM2AirDT,
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
		{
			name: "Perturb.SSTDT",
			usage: `
              Perturb.SSTDT is the sea surface temperature change [K].`,
			defaultVal: pgw.NorESM2SSTDT,
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
		{
			name: "Perturb.SnowDepthChange",
			usage: `
              Perturb.SnowDepthChange is the snow depth change [m]. Snow depth
              and snow water are not allowed to become negative.`,
			defaultVal: pgw.NorESM2SnowDepthChange,
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
		{
			name: "Perturb.SnowDensity",
			usage: `
              Perturb.SnowDensity [kg/m3] converts the snow depth change to a
              snow water equivalent change.`,
			defaultVal: pgw.SnowDensity,
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
		{
			name: "Perturb.SoilDT",
			usage: `
              Perturb.SoilDT are the temperature changes [K] of the soil layers
              ST000007, ST007028, ST028100, ST100289 and SOILTEMP.`,
			defaultVal: pgw.NorESM2SoilDT,
			flagsets:   []*pflag.FlagSet{perturbCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PGWCLOUD")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
			case bool:
				set.Bool(option.name, option.defaultVal.(bool), option.usage)
			case int:
				set.Int(option.name, option.defaultVal.(int), option.usage)
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			case map[string]string, []float64:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				set.String(option.name, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(codCmd)
	Root.AddCommand(psdCmd)
	Root.AddCommand(profileCmd)
	Root.AddCommand(fluxCmd)
	Root.AddCommand(signifCmd)
	Root.AddCommand(precipCmd)
	Root.AddCommand(perturbCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("pgwcloud: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// setLogging configures the standard logger.
func setLogging() error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("pgwcloud: LogLevel: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	if logFile := os.ExpandEnv(Cfg.GetString("LogFile")); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("pgwcloud: opening log file: %v", err)
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pgwcloud",
	Short: "Cloud microphysics analysis of pseudo-global-warming WRF simulations.",
	Long: `pgwcloud calculates hydrometeor size distributions, effective radii,
water paths and cloud optical depths from WRF output, together with the
flux, precipitation and significance statistics used to compare present-day
and pseudo-global-warming simulations, and applies pseudo-global-warming
perturbations to WRF input.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PGWCLOUD_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of pgwcloud.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("pgwcloud v%s\n", pgwcloud.Version)
	},
	DisableAutoGenTag: true,
}

var codCmd = &cobra.Command{
	Use:   "cod",
	Short: "Calculate cloud optical depth",
	Long: `cod calculates the water path, effective radius and optical depth of
each hydrometeor category in a grid column, and their time means over the
analysis window, for each simulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := simulations(Cfg)
		if err != nil {
			return err
		}
		o, err := ColumnOptions(Cfg)
		if err != nil {
			return err
		}
		grid, err := radiusGrid(Cfg)
		if err != nil {
			return err
		}
		outputVars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		var outputter *Outputter
		if len(outputVars) > 0 {
			if outputter, err = NewOutputter(checkOutputVars(outputVars), nil); err != nil {
				return err
			}
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		results, err := COD(sims, o, grid, pgwcloud.DefaultConstants(), outputter)
		if err != nil {
			return err
		}
		t, err := CODTable(results, o.Categories, outputter)
		if err != nil {
			return err
		}
		return SaveTables(outputFile, t)
	},
	DisableAutoGenTag: true,
}

var psdCmd = &cobra.Command{
	Use:   "psd",
	Short: "Calculate a gamma size distribution",
	Long: `psd calculates the gamma size distribution parameters, the size
distribution and the effective radius of a hydrometeor population given
its number concentration, mixing ratio, pressure and temperature.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := pgwcloud.DefaultConstants()
		var m pgwcloud.Moments
		var err error
		if Cfg.GetBool("PSD.FromFile") {
			f, err := checkInputFile("WRFOut", Cfg.GetString("WRFOut"))
			if err != nil {
				return err
			}
			cats, err := parseCategories([]string{Cfg.GetString("PSD.Category")})
			if err != nil {
				return err
			}
			o, err := ColumnOptions(Cfg)
			if err != nil {
				return err
			}
			if m, err = ColumnMoments(f, o, Cfg.GetInt("PSD.Level"), cats[0], c); err != nil {
				return err
			}
		} else if m, err = moments(Cfg); err != nil {
			return err
		}
		grid, err := radiusGrid(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		r, err := PSD(m, grid, c, Cfg.GetFloat64("PSD.DMin"), Cfg.GetFloat64("PSD.DMax"), Cfg.GetInt("PSD.Points"))
		if err != nil {
			return err
		}
		if plotFile := os.ExpandEnv(Cfg.GetString("PlotFile")); plotFile != "" && r.Number == nil {
			logrus.WithFields(logrus.Fields{"N": m.N, "q": m.Q}).Warn("size distribution undefined, not plotting")
		} else if plotFile != "" {
			label := fmt.Sprintf("N=%.3g m⁻³, q=%.3g kg/kg", m.N, m.Q)
			if err := PlotSizeDistribution(plotFile, r.Diameter, map[string][]float64{label: r.Number}); err != nil {
				return err
			}
		}
		tables, err := r.Tables()
		if err != nil {
			return err
		}
		return SaveTables(outputFile, tables...)
	},
	DisableAutoGenTag: true,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Calculate water content profiles",
	Long: `profile calculates time-mean liquid and frozen water content profiles
and the mean cloud base height of a grid column for each simulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := simulations(Cfg)
		if err != nil {
			return err
		}
		o, err := ColumnOptions(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		results, err := Profiles(sims, o, pgwcloud.DefaultConstants(), Cfg.GetInt("Profile.MaxLevel"))
		if err != nil {
			return err
		}
		if plotFile := os.ExpandEnv(Cfg.GetString("PlotFile")); plotFile != "" {
			profs := make(map[string]*pgwcloud.WCProfile)
			for _, r := range results {
				profs[r.Simulation] = r.Profile
			}
			if err := PlotProfiles(plotFile, profs); err != nil {
				return err
			}
		}
		tables, err := ProfileTables(results)
		if err != nil {
			return err
		}
		return SaveTables(outputFile, tables...)
	},
	DisableAutoGenTag: true,
}

var fluxCmd = &cobra.Command{
	Use:   "flux",
	Short: "Calculate domain-mean radiative fluxes",
	Long: `flux calculates domain-mean time series of a radiative flux and its
cloud radiative effect for each simulation and summarizes them with box
plot statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := simulations(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		allSky := Cfg.GetString("Flux.AllSky")
		results, err := Fluxes(sims, allSky, Cfg.GetString("Flux.ClearSky"),
			Cfg.GetInt("Start"), Cfg.GetInt("End"), Cfg.GetInt("Border"))
		if err != nil {
			return err
		}
		if plotFile := os.ExpandEnv(Cfg.GetString("PlotFile")); plotFile != "" {
			names := make([]string, len(results))
			series := make([][]float64, len(results))
			for i, r := range results {
				names[i] = r.Simulation
				series[i] = r.AllSky
			}
			if err := PlotBoxes(plotFile, allSky+" [W m⁻²]", names, series); err != nil {
				return err
			}
		}
		t, err := FluxTable(results, allSky)
		if err != nil {
			return err
		}
		return SaveTables(outputFile, t)
	},
	DisableAutoGenTag: true,
}

var signifCmd = &cobra.Command{
	Use:   "signif",
	Short: "Compare time means of two simulations",
	Long: `signif calculates the time mean and standard error of a variable at
every grid cell of two simulations, and the difference between the means
where it exceeds the standard errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := LoadSimulations(Cfg.GetString("Simulations"))
		if err != nil {
			return err
		}
		a, err := findSimulation(sims, Cfg.GetString("Signif.A"))
		if err != nil {
			return err
		}
		b, err := findSimulation(sims, Cfg.GetString("Signif.B"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		ncFile, err := checkOutputFile(Cfg.GetString("Signif.NetCDFFile"))
		if err != nil {
			return err
		}
		t, err := Significance(a, b, Cfg.GetString("Signif.Variable"), Cfg.GetInt("Start"), Cfg.GetInt("End"),
			Cfg.GetBool("Signif.LagCorrected"), ncFile)
		if err != nil {
			return err
		}
		return SaveTables(outputFile, t)
	},
	DisableAutoGenTag: true,
}

var precipCmd = &cobra.Command{
	Use:   "precip",
	Short: "Calculate accumulated precipitation",
	Long: `precip calculates rain, snow and total grid-scale precipitation
accumulated between the records Start and End, as domain means and at the
grid cell Column.Y, Column.X, for each simulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := simulations(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		results, err := Precip(sims, Cfg.GetInt("Start"), Cfg.GetInt("End"), Cfg.GetInt("Border"),
			Cfg.GetInt("Column.Y"), Cfg.GetInt("Column.X"))
		if err != nil {
			return err
		}
		t, err := PrecipTable(results)
		if err != nil {
			return err
		}
		return SaveTables(outputFile, t)
	},
	DisableAutoGenTag: true,
}

var perturbCmd = &cobra.Command{
	Use:   "perturb",
	Short: "Apply a pseudo-global-warming perturbation",
	Long: `perturb adds climate change signals of air, sea surface and soil
temperature and snow cover to WRF met_em files in place. The default
changes are from the NorESM2 model for the Svalbard region in autumn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandStringSlice(Cfg.GetStringSlice("Perturb.Files"))
		if len(files) == 0 {
			return fmt.Errorf("pgwcloud: no met_em files specified in Perturb.Files")
		}
		pt, err := perturbation(Cfg)
		if err != nil {
			return err
		}
		return Perturb(files, pt)
	},
	DisableAutoGenTag: true,
}
