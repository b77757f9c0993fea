package config

import "time"

const (
	// DefaultProjectDir is the default project root
	DefaultProjectDir = "."
	// DefaultConfigFile is the optional project config file, relative to the project root
	DefaultConfigFile = "simrun.yaml"
	// DefaultCatalogFile is the default test catalog
	DefaultCatalogFile = "test_catalog.yml"
	// DefaultRTLDir holds one source file per module
	DefaultRTLDir = "rtl"
	// DefaultIncludeDir is the shared include directory
	DefaultIncludeDir = "common/includes"
	// DefaultTBDir is the testbench root
	DefaultTBDir = "tb"
	// DefaultTBCommonDir holds testbench sources compiled with every test
	DefaultTBCommonDir = "tb/common"
	// DefaultHexDir is searched recursively for <test>.text.hex and <test>.data.hex
	DefaultHexDir = "test_inputs/compiled_programs"
	// DefaultFilelistDir receives the generated file lists
	DefaultFilelistDir = "filelists"
	// DefaultOutputDir is the default results directory
	DefaultOutputDir = "sim_results"
	// DefaultResultsFile is the run summary written under the output directory
	DefaultResultsFile = "test-results.json"
	// DefaultRunLogFile is the run-level log written under the output directory
	DefaultRunLogFile = "test_run.log"
	// DefaultSimulator is the compiler binary
	DefaultSimulator = "iverilog"
	// DefaultSourceExt is the module source extension
	DefaultSourceExt = ".sv"
	// DefaultInstancePrefix marks instance names in HDL sources
	DefaultInstancePrefix = "u_"
	// DefaultJobs runs tests strictly one after another
	DefaultJobs = 1
	// DefaultSimTimeout of zero leaves the simulate phase unbounded
	DefaultSimTimeout time.Duration = 0
	// DefaultLogLevel is the console log level
	DefaultLogLevel = "info"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SIMRUN_"
