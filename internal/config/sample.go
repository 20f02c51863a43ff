package config

const generalSample = `# Path of the p4app manifest. (default p4app.json)
manifest = "p4app.json"

# Manifest target to use. Empty selects the first declared target.
target = ""

# Log level: debug, info, warn or error. (default info)
log_level = "info"

# Log format: human or json. (default human)
log_format = "human"
`

const switchSample = `# Runtime CLI binary. (default simple_switch_CLI)
cli = "simple_switch_CLI"

# Thrift port of the first switch in name order; the others follow
# consecutively. (default 9090)
thrift_port = 9090

# Multicast dialect: simple_switch or generic. (default simple_switch)
target_model = "simple_switch"

# Fail instead of skipping transit routes whose next hop is a host.
strict_transit = false
`

const runnerSample = `# Where the runtime CLI runs: local, netns or docker. (default local)
kind = "local"

# Directory of the per-switch network namespaces. (default /var/run/netns)
netns_dir = "/var/run/netns"

# Docker container holding the switches. Empty uses one container per
# switch, named after it.
container = ""

# Extra environment for the started processes.
env = ["PYTHONUNBUFFERED=1"]
`

const tablesSample = `frame = "send_frame"
forward = "forward"
route = "ipv4_lpm"
drop = "_drop"
rewrite_mac = "rewrite_mac"
set_dmac = "set_dmac"
set_nhop = "set_nhop"
`

const transcriptSample = `# Directory receiving one JSON install record per switch. Empty disables
# records.
dir = ""
`
