package ollama

import "gitpulse/internal/core/category"

type synonym struct {
	term string
	cat  category.Category
}

// synonyms is checked in order, longer spellings sit before their stems
var synonyms = []synonym{
	// refactor
	{"refactoring", category.Refactor},
	{"refacto", category.Refactor},
	{"refact", category.Refactor},
	{"refac", category.Refactor},
	{"restructure", category.Refactor},
	{"reorganize", category.Refactor},
	{"simplify", category.Refactor},
	{"cleanup", category.Refactor},
	{"clean", category.Refactor},
	{"remove", category.Refactor},
	{"delete", category.Refactor},
	{"rename", category.Refactor},
	{"change", category.Refactor},
	{"modify", category.Refactor},
	{"optimization", category.Refactor},
	{"optimize", category.Refactor},
	{"performance", category.Refactor},
	{"speed", category.Refactor},
	{"fast", category.Refactor},
	{"slow", category.Refactor},

	// feature
	{"functionality", category.Feature},
	{"funcionality", category.Feature},
	{"implementation", category.Feature},
	{"implement", category.Feature},
	{"enhancement", category.Feature},
	{"enhance", category.Feature},
	{"improvement", category.Feature},
	{"improve", category.Feature},
	{"introduce", category.Feature},
	{"addition", category.Feature},
	{"feat", category.Feature},
	{"func", category.Feature},
	{"add", category.Feature},
	{"new", category.Feature},

	// fix
	{"bugfix", category.Fix},
	{"hotfix", category.Fix},
	{"patch", category.Fix},
	{"repair", category.Fix},
	{"resolve", category.Fix},
	{"crash", category.Fix},
	{"bug", category.Fix},

	// docs
	{"documentation", category.Docs},
	{"document", category.Docs},
	{"readme", category.Docs},
	{"changelog", category.Docs},
	{"comment", category.Docs},
	{"doc", category.Docs},

	// test
	{"testing", category.Test},
	{"coverage", category.Test},
	{"spec", category.Test},
	{"unit", category.Test},

	// style
	{"formatting", category.Style},
	{"format", category.Style},
	{"prettier", category.Style},
	{"whitespace", category.Style},
	{"indent", category.Style},
	{"lint", category.Style},

	// chore, ci and build terms fold into chore
	{"maintenance", category.Chore},
	{"dependencies", category.Chore},
	{"dependency", category.Chore},
	{"kubernetes", category.Chore},
	{"pipeline", category.Chore},
	{"workflow", category.Chore},
	{"docker", category.Chore},
	{"deploy", category.Chore},
	{"release", category.Chore},
	{"upgrade", category.Chore},
	{"update", category.Chore},
	{"build", category.Chore},
	{"bump", category.Chore},
	{"ci/cd", category.Chore},
	{"wip", category.Chore},
	{"cd", category.Chore},
}
