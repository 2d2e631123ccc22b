// Package commands defines the installerctl CLI and wires the bus
// clients for subcommands.
//
// Commands
//
//   - products   List installable base products and the selected one
//   - select     Select the base product to install
//   - lang       Print or set the backend UI language
//   - proposal   Print the storage proposal
//   - actions    Print the planned storage actions
//   - iscsi      Inspect and drive the iSCSI initiator
//   - watch      Follow backend progress until interrupted
//   - status     Probe every configured service and report readiness
//
// # Implementation
//
// The root command loads and validates the client configuration before
// any subcommand runs. Subcommands open exactly the service handles
// they need and close them on exit.
package commands
