package main

func (cli *commandLine) resetPassword(uname, pwd string) error {
	return cli.usrSvc.ResetPassword(cli.ctx(), uname, pwd)
}
