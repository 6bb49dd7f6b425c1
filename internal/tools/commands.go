package tools

// Heroku CLI topics invoked by the tools.
const (
	cmdListApps        = "apps"
	cmdCreateApp       = "apps:create"
	cmdRenameApp       = "apps:rename"
	cmdTransferApp     = "apps:transfer"
	cmdGetAppInfo      = "apps:info"
	cmdMaintenanceOn   = "maintenance:on"
	cmdMaintenanceOff  = "maintenance:off"
	cmdListSpaces      = "spaces"
	cmdListTeams       = "teams"
	cmdListAddons      = "addons"
	cmdGetAddonInfo    = "addons:info"
	cmdCreateAddon     = "addons:create"
	cmdAddonServices   = "addons:services"
	cmdAddonPlans      = "addons:plans"
	cmdPgPsql          = "pg:psql"
	cmdPgInfo          = "pg:info"
	cmdPgPs            = "pg:ps"
	cmdPgLocks         = "pg:locks"
	cmdPgOutliers      = "pg:outliers"
	cmdPgCredentials   = "pg:credentials"
	cmdPgKill          = "pg:kill"
	cmdPgMaintenance   = "pg:maintenance"
	cmdPgBackups       = "pg:backups"
	cmdPgUpgrade       = "pg:upgrade"
	cmdPs              = "ps"
	cmdPsScale         = "ps:scale"
	cmdPsRestart       = "ps:restart"
	cmdPipelines       = "pipelines"
	cmdPipelinesCreate = "pipelines:create"
	cmdPipelinesPromo  = "pipelines:promote"
	cmdPipelinesInfo   = "pipelines:info"
	cmdLogs            = "logs"
	cmdAIModelsList    = "ai:models:list"
	cmdAIModelsCreate  = "ai:models:create"
	cmdAIAgentsCall    = "ai:agents:call"
)
