// zartdeploy - local deployment helper
//
// zartdeploy wraps sqllocaldb and sqlcmd to create, drop and recreate
// SQL Server LocalDB instances and databases, and launches IIS Express.
package main

import (
	"os"

	"github.com/enunezf/zartdeploy/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
