package pgrunner

import postgressmoke "github.com/amidman/dbsmoke/postgres"

var reusable = postgressmoke.NewReusable(RunContainer(nil))

func Reusable() *postgressmoke.Reusable {
	return reusable
}
