package metrics

// The metrics backend has shipped several layouts over time, with English and
// Spanish key spellings, flat and grouped scalars, and two curve encodings.
// Every accepted spelling is listed here, in priority order. Nothing outside
// this file knows about them.

// scalarGroups are the objects that may hold scalar metrics. The empty group
// is the document root.
var scalarGroups = [][]string{
	nil,
	{"metrics"},
	{"Metricas"},
	{"métricas"},
	{"summary"},
}

var scalarSpellings = map[Field][]string{
	FieldPrecision:          {"precision", "Precision", "precisión", "Precisión"},
	FieldRecall:             {"recall", "Recall", "sensibilidad"},
	FieldAccuracy:           {"accuracy", "Accuracy", "exactitud", "Exactitud"},
	FieldF1:                 {"f1", "f1_score", "F1", "f1Score", "F1-Score"},
	FieldAUC:                {"auc", "roc_auc", "auc_roc", "AUC", "AUC-ROC"},
	FieldAveragePrecision:   {"average_precision", "avg_precision", "averagePrecision", "AP"},
	FieldCorrectPredictions: {"correct_predictions", "correctPredictions", "predicciones_correctas"},
}

var identitySpellings = map[string][]string{
	"run_id": {"run_id", "runId", "id"},
	"model":  {"model", "model_name", "modelo"},
}

var (
	scalarCandidates   = expandCandidates(scalarSpellings)
	identityCandidates = expandCandidates(identitySpellings)
)

// expandCandidates produces the ordered lookup paths for each key: every
// spelling at the root first, then every spelling inside each group.
func expandCandidates[K comparable](spellings map[K][]string) map[K][][]string {
	out := make(map[K][][]string, len(spellings))
	for key, names := range spellings {
		var paths [][]string
		for _, group := range scalarGroups {
			for _, name := range names {
				path := make([]string, 0, len(group)+1)
				path = append(path, group...)
				paths = append(paths, append(path, name))
			}
		}
		out[key] = paths
	}
	return out
}

// curveLayout is one place a curve may live, with the key pairs that hold
// its x and y coordinates.
type curveLayout struct {
	container []string
	keys      [][2]string
}

var rocKeys = [][2]string{{"labels", "values"}, {"fpr", "tpr"}, {"x", "y"}}

var rocLayouts = []curveLayout{
	{container: []string{"Curvas", "roc"}, keys: rocKeys},
	{container: []string{"Curvas", "roc_curve"}, keys: rocKeys},
	{container: []string{"curves", "roc"}, keys: rocKeys},
	{container: []string{"curves", "roc_curve"}, keys: rocKeys},
	{container: []string{"roc"}, keys: rocKeys},
	{container: []string{"roc_curve"}, keys: rocKeys},
}

var prKeys = [][2]string{{"labels", "values"}, {"recall", "precision"}, {"x", "y"}}

var prLayouts = []curveLayout{
	{container: []string{"Curvas", "pr"}, keys: prKeys},
	{container: []string{"Curvas", "pr_curve"}, keys: prKeys},
	{container: []string{"Curvas", "precision_recall"}, keys: prKeys},
	{container: []string{"curves", "pr"}, keys: prKeys},
	{container: []string{"curves", "pr_curve"}, keys: prKeys},
	{container: []string{"curves", "precision_recall"}, keys: prKeys},
	{container: []string{"pr"}, keys: prKeys},
	{container: []string{"pr_curve"}, keys: prKeys},
	{container: []string{"precision_recall"}, keys: prKeys},
}

var confusionContainers = [][]string{
	{"confusion_matrix"},
	{"confusionMatrix"},
	{"matriz_confusion"},
	{"Matriz"},
	{"metrics", "confusion_matrix"},
	{"Metricas", "matriz_confusion"},
}
